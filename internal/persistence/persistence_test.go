package persistence

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/memory"
	"github.com/utafrali/storefront/pkg/logger"
)

// failingKV fails every call with err.
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error    { return f.err }
func (f failingKV) Delete(context.Context, string) error         { return f.err }
func (f failingKV) Ping(context.Context) error                   { return f.err }

var _ storage.KV = failingKV{}

// contextKV fails writes whose context is already done, as network clients do.
type contextKV struct{ *memory.KV }

func (c contextKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.KV.Set(ctx, key, value)
}

func (c contextKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.KV.Delete(ctx, key)
}

func TestKeysFor(t *testing.T) {
	k := KeysFor("storefront", "abc")
	assert.Equal(t, "storefront:abc:cart", k.Cart)
	assert.Equal(t, "storefront:abc:wishlist", k.Wishlist)
}

// ============================================================================
// Cart Tests
// ============================================================================

func TestCart_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	keys := KeysFor("storefront", "s1")
	added := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	New(kv, logger.Discard()).SaveCart(ctx, keys.Cart, []domain.CartLine{
		{ProductID: "1", Quantity: 2, AddedAt: added},
		{ProductID: "4", Quantity: 1, AddedAt: added.Add(time.Minute)},
	})

	// a fresh adapter stands in for a new session
	lines := New(kv, logger.Discard()).LoadCart(ctx, keys.Cart)
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, added, lines[0].AddedAt)
	assert.Equal(t, "4", lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestCart_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	New(kv, logger.Discard()).SaveCart(ctx, "c", []domain.CartLine{
		{ProductID: "1", Quantity: 2, AddedAt: time.UnixMilli(1714564800000)},
	})

	raw, err := kv.Get(ctx, "c")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"1","quantity":2,"addedAt":1714564800000}]`, string(raw))
}

func TestCart_CorruptValueYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, "c", []byte(`{not json`)))

	var buf bytes.Buffer
	a := New(kv, slog.New(slog.NewJSONHandler(&buf, nil)))

	before := testutil.ToFloat64(failuresTotal.WithLabelValues(OpDecode))
	assert.Empty(t, a.LoadCart(ctx, "c"))
	assert.Equal(t, before+1, testutil.ToFloat64(failuresTotal.WithLabelValues(OpDecode)))
	assert.Contains(t, buf.String(), "persistence failure ignored")
}

func TestCart_WrongShapeYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, "c", []byte(`[{"productId":"1","quantity":"two"}]`)))

	assert.Empty(t, New(kv, logger.Discard()).LoadCart(ctx, "c"))
}

func TestCart_AbsentIsNotAFailure(t *testing.T) {
	before := testutil.ToFloat64(failuresTotal.WithLabelValues(OpLoad))
	assert.Nil(t, New(memory.New(), logger.Discard()).LoadCart(context.Background(), "missing"))
	assert.Equal(t, before, testutil.ToFloat64(failuresTotal.WithLabelValues(OpLoad)))
}

// ============================================================================
// Wishlist Tests
// ============================================================================

func TestWishlist_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	a := New(kv, logger.Discard())

	a.SaveWishlist(ctx, "w", []string{"3", "1"})
	assert.Equal(t, []string{"3", "1"}, a.LoadWishlist(ctx, "w"))

	raw, _ := kv.Get(ctx, "w")
	assert.JSONEq(t, `["3","1"]`, string(raw))
}

func TestWishlist_EmptyEncodesAsArray(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	New(kv, logger.Discard()).SaveWishlist(ctx, "w", nil)

	raw, _ := kv.Get(ctx, "w")
	assert.Equal(t, `[]`, string(raw))
}

// ============================================================================
// Failure Policy Tests
// ============================================================================

func TestAdapter_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	a := New(failingKV{err: errors.New("quota exceeded")}, logger.Discard())

	saves := testutil.ToFloat64(failuresTotal.WithLabelValues(OpSave))
	loads := testutil.ToFloat64(failuresTotal.WithLabelValues(OpLoad))

	assert.NotPanics(t, func() {
		a.SaveCart(ctx, "c", []domain.CartLine{{ProductID: "1", Quantity: 1}})
		a.SaveWishlist(ctx, "w", []string{"1"})
	})
	assert.Nil(t, a.LoadCart(ctx, "c"))
	assert.Nil(t, a.LoadWishlist(ctx, "w"))

	assert.Equal(t, saves+2, testutil.ToFloat64(failuresTotal.WithLabelValues(OpSave)))
	assert.Equal(t, loads+2, testutil.ToFloat64(failuresTotal.WithLabelValues(OpLoad)))
	assert.Error(t, a.Ping(ctx))
}

func TestAdapter_EncodeFailure(t *testing.T) {
	before := testutil.ToFloat64(failuresTotal.WithLabelValues(OpEncode))
	New(memory.New(), logger.Discard()).Save(context.Background(), "k", make(chan int))
	assert.Equal(t, before+1, testutil.ToFloat64(failuresTotal.WithLabelValues(OpEncode)))
}

func TestAdapter_Delete(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	a := New(kv, logger.Discard())
	a.SaveWishlist(ctx, "w", []string{"1"})

	a.Delete(ctx, "w")
	assert.Nil(t, a.LoadWishlist(ctx, "w"))
}

func TestAdapter_WritesOutliveCancelledContext(t *testing.T) {
	kv := contextKV{memory.New()}
	a := New(kv, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(failuresTotal.WithLabelValues(OpSave))
	a.SaveWishlist(ctx, "w", []string{"3"})
	assert.Equal(t, before, testutil.ToFloat64(failuresTotal.WithLabelValues(OpSave)))
	assert.Equal(t, []string{"3"}, a.LoadWishlist(context.Background(), "w"))

	a.Delete(ctx, "w")
	assert.Nil(t, a.LoadWishlist(context.Background(), "w"))
}
