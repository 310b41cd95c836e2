// Package storefront owns the application state of one shopper session:
// catalog selection, cart, wishlist, checkout, open surfaces and toasts.
// Every mutation persists what changed and then notifies subscribers.
package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/persistence"
	"github.com/utafrali/storefront/internal/timer"
	"github.com/utafrali/storefront/internal/wishlist"
)

// Timings holds the durations of the timer-driven feedback.
type Timings struct {
	SearchDebounce time.Duration
	CheckoutDelay  time.Duration
	ToastTTL       time.Duration
	CardLabelTTL   time.Duration
	ModalLabelTTL  time.Duration
}

// DefaultTimings returns the durations the storefront UI uses.
func DefaultTimings() Timings {
	return Timings{
		SearchDebounce: 300 * time.Millisecond,
		CheckoutDelay:  checkout.DefaultDelay,
		ToastTTL:       5 * time.Second,
		CardLabelTTL:   time.Second,
		ModalLabelTTL:  2 * time.Second,
	}
}

// Config wires a State.
type Config struct {
	SessionID string
	Catalog   *catalog.Catalog
	Store     *persistence.Adapter
	Keys      persistence.Keys
	Scheduler timer.Scheduler
	Timings   Timings
	Logger    *slog.Logger

	// NewID generates toast ids. Defaults to uuid.NewString.
	NewID func() string
}

// ChangeKind groups the notifications a State emits.
type ChangeKind string

// Change kinds.
const (
	ChangeSelection     ChangeKind = "selection"
	ChangeCart          ChangeKind = "cart"
	ChangeCartCleared   ChangeKind = "cart_cleared"
	ChangeWishlist      ChangeKind = "wishlist"
	ChangeSurfaces      ChangeKind = "surfaces"
	ChangeCheckout      ChangeKind = "checkout"
	ChangeNotifications ChangeKind = "notifications"
	ChangeOrderPlaced   ChangeKind = "order_placed"
)

// Change describes one state mutation. Fields not relevant to Kind are zero.
type Change struct {
	Kind      ChangeKind
	SessionID string

	ProductID  string
	Quantity   int
	Wishlisted bool

	ItemCount int
	Subtotal  decimal.Decimal

	Order *checkout.Order
}

// Surfaces tracks which overlays are open.
type Surfaces struct {
	CartOpen       bool   `json:"cartOpen"`
	CheckoutOpen   bool   `json:"checkoutOpen"`
	ModalProductID string `json:"modalProductId,omitempty"`
	ModalQuantity  int    `json:"modalQuantity"`
}

// State is the application state of one session. All methods are safe for
// concurrent use; mutations are serialized and subscribers run after the
// lock is released.
type State struct {
	id      string
	catalog *catalog.Catalog
	store   *persistence.Adapter
	keys    persistence.Keys
	sched   timer.Scheduler
	timings Timings
	logger  *slog.Logger
	newID   func() string

	mu            sync.Mutex
	selection     domain.Selection
	pendingSearch string
	cart          *cart.Cart
	wishlist      *wishlist.Wishlist
	checkout      *checkout.Simulator
	surfaces      Surfaces
	toasts        []*toast
	cardLabels    map[string]timer.Token
	modalLabel    timer.Token
	search        *timer.Debouncer
	searchSeq     uint64
	pending       []Change
	closed        bool

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(Change)
}

// New creates a session state with an empty cart and wishlist. Call Hydrate
// to restore persisted contents.
func New(cfg Config) *State {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = timer.NewReal()
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}

	s := &State{
		id:         cfg.SessionID,
		catalog:    cfg.Catalog,
		store:      cfg.Store,
		keys:       cfg.Keys,
		sched:      cfg.Scheduler,
		timings:    cfg.Timings,
		logger:     cfg.Logger.With(slog.String("session_id", cfg.SessionID)),
		newID:      cfg.NewID,
		selection:  domain.DefaultSelection(),
		cardLabels: make(map[string]timer.Token),
		subs:       make(map[int]func(Change)),
	}
	s.surfaces.ModalQuantity = cart.MinQuantity
	s.cart = cart.New(cfg.Catalog, cart.WithClock(cfg.Scheduler.Now))
	s.wishlist = wishlist.New(cfg.Catalog)
	s.search = timer.NewDebouncer(cfg.Scheduler, cfg.Timings.SearchDebounce)
	s.checkout = checkout.New(s.cart, cfg.Scheduler,
		checkout.WithDelay(cfg.Timings.CheckoutDelay),
		checkout.WithLocker(stateLocker{s}),
		checkout.WithOnComplete(s.orderPlaced),
	)
	return s
}

// ID returns the session id.
func (s *State) ID() string { return s.id }

// stateLocker lets the checkout completion callback take the state lock and
// flush queued changes on release.
type stateLocker struct{ s *State }

func (l stateLocker) Lock()   { l.s.lock() }
func (l stateLocker) Unlock() { l.s.unlock() }

func (s *State) lock() { s.mu.Lock() }

// unlock releases the state lock and then delivers queued changes.
func (s *State) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) > 0 {
		s.dispatch(pending)
	}
}

// emit queues a change for delivery once the lock is released. Callers must
// hold the lock.
func (s *State) emit(c Change) {
	c.SessionID = s.id
	s.pending = append(s.pending, c)
}

func (s *State) cartChange(productID string) Change {
	line, _ := s.cart.Line(productID)
	return Change{
		Kind:      ChangeCart,
		ProductID: productID,
		Quantity:  line.Quantity,
		ItemCount: s.cart.ItemCount(),
		Subtotal:  s.cart.Subtotal(),
	}
}

// Subscribe registers fn to be called after every change and returns a
// function that removes it. fn runs outside the state lock and may read the
// state.
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *State) dispatch(changes []Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

// Hydrate restores the cart and wishlist from persistence. Missing or
// corrupt values leave the stores empty.
func (s *State) Hydrate(ctx context.Context) {
	s.lock()
	defer s.unlock()

	s.cart.Replace(s.store.LoadCart(ctx, s.keys.Cart))
	s.wishlist.Replace(s.store.LoadWishlist(ctx, s.keys.Wishlist))

	s.logger.DebugContext(ctx, "session hydrated",
		slog.Int("cart_lines", len(s.cart.Lines())),
		slog.Int("wishlist_count", s.wishlist.Count()),
	)
}

func (s *State) persistCart(ctx context.Context) {
	s.store.SaveCart(ctx, s.keys.Cart, s.cart.Lines())
}

func (s *State) persistWishlist(ctx context.Context) {
	s.store.SaveWishlist(ctx, s.keys.Wishlist, s.wishlist.IDs())
}

// Close cancels every pending timer. A processing order is aborted and the
// cart kept. The state must not be used afterwards.
func (s *State) Close() {
	s.lock()
	defer s.unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancelSearch()
	s.checkout.Abort()
	for id, tok := range s.cardLabels {
		tok.Cancel()
		delete(s.cardLabels, id)
	}
	if s.modalLabel != nil {
		s.modalLabel.Cancel()
		s.modalLabel = nil
	}
	for _, t := range s.toasts {
		t.token.Cancel()
	}
	s.toasts = nil
}
