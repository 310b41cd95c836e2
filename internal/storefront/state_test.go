package storefront

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/persistence"
	"github.com/utafrali/storefront/internal/storage/memory"
	"github.com/utafrali/storefront/internal/timer"
	"github.com/utafrali/storefront/pkg/logger"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	state   *State
	sched   *timer.Manual
	kv      *memory.KV
	store   *persistence.Adapter
	keys    persistence.Keys
	changes []Change
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sched: timer.NewManual(epoch),
		kv:    memory.New(),
		keys:  persistence.KeysFor("storefront", "s1"),
	}
	f.store = persistence.New(f.kv, logger.Discard())
	f.state = f.newState()
	f.state.Subscribe(func(c Change) { f.changes = append(f.changes, c) })
	t.Cleanup(f.state.Close)
	return f
}

func (f *fixture) newState() *State {
	seq := 0
	return New(Config{
		SessionID: "s1",
		Catalog:   catalog.MustSeed(),
		Store:     f.store,
		Keys:      f.keys,
		Scheduler: f.sched,
		Logger:    logger.Discard(),
		NewID: func() string {
			seq++
			return fmt.Sprintf("t%d", seq)
		},
	})
}

// firedScheduler hands out tokens for timers that have already fired: Cancel
// always reports false and the callbacks run only when the test says so.
type firedScheduler struct {
	tasks []firedTask
}

type firedTask struct {
	delay time.Duration
	fn    func()
}

type firedToken struct{}

func (firedToken) Cancel() bool { return false }

func (f *firedScheduler) AfterFunc(d time.Duration, fn func()) timer.Token {
	f.tasks = append(f.tasks, firedTask{delay: d, fn: fn})
	return firedToken{}
}

func (f *firedScheduler) Now() time.Time { return epoch }

// run invokes every captured callback scheduled with delay d.
func (f *firedScheduler) run(d time.Duration) int {
	n := 0
	for _, task := range f.tasks {
		if task.delay == d {
			task.fn()
			n++
		}
	}
	return n
}

func (f *fixture) stateWith(sched timer.Scheduler) *State {
	return New(Config{
		SessionID: "s1",
		Catalog:   catalog.MustSeed(),
		Store:     f.store,
		Keys:      f.keys,
		Scheduler: sched,
		Logger:    logger.Discard(),
		NewID:     func() string { return "t" },
	})
}

func (f *fixture) kinds() []ChangeKind {
	out := make([]ChangeKind, 0, len(f.changes))
	for _, c := range f.changes {
		out = append(out, c.Kind)
	}
	return out
}

func (f *fixture) toastTitles() []string {
	snap := f.state.Snapshot()
	out := make([]string, 0, len(snap.Toasts))
	for _, t := range snap.Toasts {
		out = append(out, t.Title)
	}
	return out
}

func validForm() checkout.Form {
	return checkout.Form{
		Email:      "jane@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
		Address:    "1 Main St",
		City:       "Springfield",
		ZipCode:    "12345",
		CardNumber: "4242424242424242",
		ExpiryDate: "12/30",
		CVV:        "123",
	}
}

// ============================================================================
// Cart Tests
// ============================================================================

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.state.AddToCart(ctx, "1", 2))

	snap := f.state.Snapshot()
	assert.Equal(t, 2, snap.ItemCount)
	assert.Equal(t, "179.98", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "194.38", snap.Total.StringFixed(2))
	assert.True(t, snap.CardAdded("1"))
	assert.Equal(t, []string{"Added to Cart"}, f.toastTitles())
	assert.Equal(t, "Wireless Bluetooth Headphones has been added to your cart", snap.Toasts[0].Message)
	assert.Equal(t, ToastSuccess, snap.Toasts[0].Kind)
	assert.Contains(t, f.kinds(), ChangeCart)

	persisted := f.store.LoadCart(ctx, f.keys.Cart)
	require.Len(t, persisted, 1)
	assert.Equal(t, "1", persisted[0].ProductID)
	assert.Equal(t, 2, persisted[0].Quantity)
	assert.True(t, persisted[0].AddedAt.Equal(epoch))
}

func TestAddToCart_IgnoresUnknownAndOutOfStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.state.AddToCart(ctx, "999", 1))
	assert.False(t, f.state.AddToCart(ctx, "8", 1))
	assert.False(t, f.state.AddToCart(ctx, "1", 0))

	assert.Empty(t, f.changes)
	assert.Empty(t, f.toastTitles())
	assert.Zero(t, f.kv.Len())
}

func TestAddToCart_QuantityLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.state.AddToCart(ctx, "1", 9))
	require.True(t, f.state.AddToCart(ctx, "1", 5))
	assert.Equal(t, 10, f.state.Snapshot().ItemCount)

	assert.False(t, f.state.AddToCart(ctx, "1", 1))
	snap := f.state.Snapshot()
	assert.Equal(t, 10, snap.ItemCount)
	last := snap.Toasts[len(snap.Toasts)-1]
	assert.Equal(t, "Quantity Limit", last.Title)
	assert.Equal(t, ToastWarning, last.Kind)
}

func TestCardLabelAndToastExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "2", 1)

	f.sched.Advance(999 * time.Millisecond)
	assert.True(t, f.state.Snapshot().CardAdded("2"))

	f.sched.Advance(time.Millisecond)
	assert.False(t, f.state.Snapshot().CardAdded("2"))
	assert.Len(t, f.toastTitles(), 1)

	f.sched.Advance(4 * time.Second)
	assert.Empty(t, f.toastTitles())
}

func TestCardLabel_RepeatAddRestartsTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.state.AddToCart(ctx, "2", 1)
	f.sched.Advance(800 * time.Millisecond)
	f.state.AddToCart(ctx, "2", 1)
	f.sched.Advance(800 * time.Millisecond)
	assert.True(t, f.state.Snapshot().CardAdded("2"))

	f.sched.Advance(200 * time.Millisecond)
	assert.False(t, f.state.Snapshot().CardAdded("2"))
}

func TestDismissToast(t *testing.T) {
	f := newFixture(t)
	f.state.AddToCart(context.Background(), "3", 1)

	assert.True(t, f.state.DismissToast("t1"))
	assert.False(t, f.state.DismissToast("t1"))
	assert.Empty(t, f.toastTitles())
}

func TestRemoveAndUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "1", 1)
	f.state.AddToCart(ctx, "3", 1)

	assert.True(t, f.state.UpdateQuantity(ctx, "1", 25))
	assert.Equal(t, 11, f.state.Snapshot().ItemCount)

	assert.False(t, f.state.DecrementLine(ctx, "3"), "already at the floor")
	assert.False(t, f.state.IncrementLine(ctx, "1"), "already at the cap")

	assert.True(t, f.state.UpdateQuantity(ctx, "3", 0))
	assert.Equal(t, 10, f.state.Snapshot().ItemCount)

	assert.True(t, f.state.RemoveFromCart(ctx, "1"))
	assert.False(t, f.state.RemoveFromCart(ctx, "1"))
	assert.Contains(t, f.toastTitles(), "Removed from Cart")
	assert.Empty(t, f.store.LoadCart(ctx, f.keys.Cart))
}

func TestHydrate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "4", 3)
	f.state.ToggleWishlist(ctx, "7")

	restored := f.newState()
	t.Cleanup(restored.Close)
	restored.Hydrate(ctx)

	snap := restored.Snapshot()
	require.Len(t, snap.CartItems, 1)
	assert.Equal(t, "4", snap.CartItems[0].Line.ProductID)
	assert.Equal(t, 3, snap.CartItems[0].Line.Quantity)
	assert.True(t, snap.CartItems[0].Known)
	assert.Equal(t, []string{"7"}, snap.Wishlist)
}

func TestHydrate_CorruptValuesStartEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, f.keys.Cart, []byte("{not json")))
	require.NoError(t, f.kv.Set(ctx, f.keys.Wishlist, []byte(`"oops"`)))

	f.state.Hydrate(ctx)

	snap := f.state.Snapshot()
	assert.Empty(t, snap.CartItems)
	assert.Empty(t, snap.Wishlist)
}

// ============================================================================
// Selection Tests
// ============================================================================

func TestSelection(t *testing.T) {
	f := newFixture(t)

	f.state.SetCategory("electronics")
	f.state.SetSort(domain.SortPriceLow)

	snap := f.state.Snapshot()
	ids := make([]string, 0, len(snap.Products))
	for _, p := range snap.Products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"9", "1", "2", "4"}, ids)

	f.changes = nil
	f.state.SetSort("bogus")
	assert.Equal(t, domain.SortFeatured, f.state.Snapshot().Selection.Sort)
	f.state.SetSort("bogus")
	assert.Len(t, f.changes, 1, "unchanged selection does not notify")
}

func TestSearchInput_Debounced(t *testing.T) {
	f := newFixture(t)

	f.state.SearchInput("wire")
	f.sched.Advance(200 * time.Millisecond)
	f.state.SearchInput("wireless")
	f.sched.Advance(299 * time.Millisecond)

	snap := f.state.Snapshot()
	assert.Equal(t, "", snap.Selection.SearchTerm)
	assert.Equal(t, "wireless", snap.PendingSearch)

	f.sched.Advance(time.Millisecond)
	snap = f.state.Snapshot()
	assert.Equal(t, "wireless", snap.Selection.SearchTerm)
	assert.Len(t, snap.Products, 2)
}

func TestSubmitSearch_CancelsPendingInput(t *testing.T) {
	f := newFixture(t)

	f.state.SearchInput("chair")
	f.state.SubmitSearch("lamp")
	f.sched.Advance(time.Second)

	snap := f.state.Snapshot()
	assert.Equal(t, "lamp", snap.Selection.SearchTerm)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "5", snap.Products[0].ID)
}

func TestSubmitSearch_DiscardsFiredInput(t *testing.T) {
	f := newFixture(t)
	sched := &firedScheduler{}
	state := f.stateWith(sched)
	defer state.Close()

	state.SearchInput("watch")
	state.SubmitSearch("lamp")
	require.Equal(t, 1, sched.run(300*time.Millisecond))

	snap := state.Snapshot()
	assert.Equal(t, "lamp", snap.Selection.SearchTerm)
	assert.Equal(t, "lamp", snap.PendingSearch)
}

func TestSetSelection_DiscardsFiredInput(t *testing.T) {
	f := newFixture(t)
	sched := &firedScheduler{}
	state := f.stateWith(sched)
	defer state.Close()

	state.SearchInput("watch")
	state.SetSelection(domain.Selection{Category: "electronics"})
	require.Equal(t, 1, sched.run(300*time.Millisecond))

	snap := state.Snapshot()
	assert.Equal(t, "", snap.Selection.SearchTerm)
	assert.Equal(t, "electronics", snap.Selection.Category)
}

func TestSearchInput_LatestFiredInputWins(t *testing.T) {
	f := newFixture(t)
	sched := &firedScheduler{}
	state := f.stateWith(sched)
	defer state.Close()

	state.SearchInput("chair")
	state.SearchInput("wireless")
	require.Equal(t, 2, sched.run(300*time.Millisecond))

	assert.Equal(t, "wireless", state.Snapshot().Selection.SearchTerm)
}

// ============================================================================
// Wishlist Tests
// ============================================================================

func TestToggleWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	member, ok := f.state.ToggleWishlist(ctx, "6")
	require.True(t, ok)
	assert.True(t, member)
	assert.Equal(t, []string{"6"}, f.store.LoadWishlist(ctx, f.keys.Wishlist))

	member, ok = f.state.ToggleWishlist(ctx, "6")
	require.True(t, ok)
	assert.False(t, member)
	assert.Empty(t, f.store.LoadWishlist(ctx, f.keys.Wishlist))

	_, ok = f.state.ToggleWishlist(ctx, "999")
	assert.False(t, ok)

	assert.Equal(t, []string{"Added to Wishlist", "Removed from Wishlist"}, f.toastTitles())
}

func TestShowWishlistSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.ToggleWishlist(ctx, "1")
	f.state.ToggleWishlist(ctx, "2")

	f.state.ShowWishlistSummary()

	snap := f.state.Snapshot()
	assert.Equal(t, "You have 2 items in your wishlist", snap.Toasts[len(snap.Toasts)-1].Message)
}

// ============================================================================
// Modal Tests
// ============================================================================

func TestProductModal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.state.OpenProduct("999"))
	require.True(t, f.state.OpenProduct("1"))

	f.state.ModalDecrease()
	assert.Equal(t, 1, f.state.Snapshot().Surfaces.ModalQuantity)
	for i := 0; i < 15; i++ {
		f.state.ModalIncrease()
	}
	assert.Equal(t, 10, f.state.Snapshot().Surfaces.ModalQuantity)
	f.state.SetModalQuantity(3)

	require.True(t, f.state.AddModalToCart(ctx))
	snap := f.state.Snapshot()
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, snap.ModalAdded)
	require.NotNil(t, snap.ModalProduct)
	assert.Equal(t, "1", snap.ModalProduct.ID)

	f.sched.Advance(2 * time.Second)
	assert.False(t, f.state.Snapshot().ModalAdded)

	f.state.CloseProduct()
	require.True(t, f.state.OpenProduct("2"))
	snap = f.state.Snapshot()
	assert.Equal(t, 1, snap.Surfaces.ModalQuantity)
	assert.Equal(t, "2", snap.Surfaces.ModalProductID)
}

// ============================================================================
// Checkout Tests
// ============================================================================

func TestOpenCheckout_EmptyCartRefused(t *testing.T) {
	f := newFixture(t)

	err := f.state.OpenCheckout()
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.False(t, f.state.Snapshot().Surfaces.CheckoutOpen)
}

func TestSubmitCheckout_ValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "1", 1)
	require.NoError(t, f.state.OpenCheckout())

	form := validForm()
	form.Email = "nope"
	err := f.state.SubmitCheckout(ctx, form)

	var verr *checkout.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter a valid email address", verr.Fields[checkout.FieldEmail])

	snap := f.state.Snapshot()
	assert.Equal(t, checkout.StateRejected, snap.Checkout.State)
	assert.Equal(t, 1, snap.ItemCount)
	last := snap.Toasts[len(snap.Toasts)-1]
	assert.Equal(t, "Validation Error", last.Title)
	assert.Equal(t, ToastError, last.Kind)
}

func TestSubmitCheckout_PlacesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "1", 2)
	f.state.OpenCart()
	require.NoError(t, f.state.OpenCheckout())

	require.NoError(t, f.state.SubmitCheckout(ctx, validForm()))
	assert.Equal(t, checkout.StateProcessing, f.state.Snapshot().Checkout.State)
	assert.ErrorIs(t, f.state.SubmitCheckout(ctx, validForm()), checkout.ErrProcessing)

	f.sched.Advance(2 * time.Second)

	snap := f.state.Snapshot()
	assert.Equal(t, checkout.StateCompleted, snap.Checkout.State)
	assert.Zero(t, snap.ItemCount)
	assert.False(t, snap.Surfaces.CartOpen)
	assert.False(t, snap.Surfaces.CheckoutOpen)
	assert.Equal(t, checkout.Form{}, snap.Checkout.Values)
	require.NotNil(t, snap.Checkout.LastOrder)
	assert.Equal(t, 2, snap.Checkout.LastOrder.Items)
	assert.Equal(t, "194.38", snap.Checkout.LastOrder.Total.StringFixed(2))
	assert.Equal(t, "Order Placed!", snap.Toasts[len(snap.Toasts)-1].Title)
	assert.Empty(t, f.store.LoadCart(ctx, f.keys.Cart))

	var placed *Change
	for i := range f.changes {
		if f.changes[i].Kind == ChangeOrderPlaced {
			placed = &f.changes[i]
		}
	}
	require.NotNil(t, placed)
	assert.Equal(t, "s1", placed.SessionID)
	assert.Contains(t, f.kinds(), ChangeCartCleared)
}

// ============================================================================
// Subscription Tests
// ============================================================================

func TestSubscribe_CallbackMayReadState(t *testing.T) {
	f := newFixture(t)

	var counts []int
	unsubscribe := f.state.Subscribe(func(c Change) {
		if c.Kind == ChangeCart {
			counts = append(counts, f.state.Snapshot().ItemCount)
		}
	})
	f.state.AddToCart(context.Background(), "1", 1)
	unsubscribe()
	f.state.AddToCart(context.Background(), "1", 1)

	assert.Equal(t, []int{1}, counts)
}

func TestClose_CancelsTimers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.state.AddToCart(ctx, "1", 1)
	f.state.SearchInput("x")
	require.Positive(t, f.sched.Pending())

	f.state.Close()
	assert.Zero(t, f.sched.Pending())
}

func TestClose_FiredCheckoutKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sched := &firedScheduler{}
	state := f.stateWith(sched)
	state.AddToCart(ctx, "1", 1)
	state.OpenCart()
	require.NoError(t, state.OpenCheckout())
	require.NoError(t, state.SubmitCheckout(ctx, validForm()))

	var placed bool
	state.Subscribe(func(c Change) {
		if c.Kind == ChangeOrderPlaced {
			placed = true
		}
	})
	state.Close()
	require.Equal(t, 1, sched.run(checkout.DefaultDelay))

	assert.False(t, placed)
	snap := state.Snapshot()
	assert.Equal(t, checkout.StateIdle, snap.Checkout.State)
	assert.Equal(t, 1, snap.ItemCount)

	restored := f.newState()
	defer restored.Close()
	restored.Hydrate(ctx)
	assert.Equal(t, 1, restored.Snapshot().ItemCount)
}
