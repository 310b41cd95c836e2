// Package persistence saves and hydrates cart and wishlist snapshots. Storage
// problems are logged and counted, never returned: a failed read behaves like
// an absent value and a failed write is skipped.
package persistence

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "github.com/utafrali/storefront/internal/persistence"

// Failure operations reported in the metric's op label.
const (
	OpLoad   = "load"
	OpDecode = "decode"
	OpSave   = "save"
	OpEncode = "encode"
	OpDelete = "delete"
)

// writeTimeout bounds a write once it is detached from the caller's context.
const writeTimeout = 5 * time.Second

var failuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_persistence_failures_total",
		Help: "Total number of swallowed persistence failures by operation",
	},
	[]string{"op"},
)

func init() {
	prometheus.MustRegister(failuresTotal)
}

// Keys holds the storage keys of one session.
type Keys struct {
	Cart     string
	Wishlist string
}

// KeysFor builds the keys for a session: <prefix>:<session>:cart and
// <prefix>:<session>:wishlist.
func KeysFor(prefix, sessionID string) Keys {
	base := prefix + ":" + sessionID + ":"
	return Keys{Cart: base + "cart", Wishlist: base + "wishlist"}
}

// cartRecord is the persisted shape of a cart line. addedAt is a millisecond
// Unix timestamp.
type cartRecord struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	AddedAt   int64  `json:"addedAt"`
}

// Adapter reads and writes JSON snapshots through a storage.KV.
type Adapter struct {
	kv     storage.KV
	logger *slog.Logger
}

// New creates an adapter over kv.
func New(kv storage.KV, logger *slog.Logger) *Adapter {
	return &Adapter{kv: kv, logger: logger}
}

func (a *Adapter) fail(ctx context.Context, op, key string, err error) {
	failuresTotal.WithLabelValues(op).Inc()
	a.logger.WarnContext(ctx, "persistence failure ignored",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// detach keeps ctx's values and trace but drops its cancellation, so a write
// triggered by a request still lands after the client goes away.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}

// Save encodes value as JSON and stores it under key. The write is not
// cancelled with ctx.
func (a *Adapter) Save(ctx context.Context, key string, value any) {
	ctx, cancel := detach(ctx)
	defer cancel()
	ctx, span := tracing.Start(ctx, tracerName, "persistence.Save", attribute.String("storage.key", key))
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		tracing.RecordError(span, err)
		a.fail(ctx, OpEncode, key, err)
		return
	}
	if err := a.kv.Set(ctx, key, data); err != nil {
		tracing.RecordError(span, err)
		a.fail(ctx, OpSave, key, err)
	}
}

// Load decodes the value under key into dst and reports whether a usable
// value was found. An absent key is not a failure. dst may be partially
// written when decoding fails.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	ctx, span := tracing.Start(ctx, tracerName, "persistence.Load", attribute.String("storage.key", key))
	defer span.End()

	data, err := a.kv.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			tracing.RecordError(span, err)
			a.fail(ctx, OpLoad, key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		tracing.RecordError(span, err)
		a.fail(ctx, OpDecode, key, err)
		return false
	}
	return true
}

// Delete removes key. Like Save it is not cancelled with ctx.
func (a *Adapter) Delete(ctx context.Context, key string) {
	ctx, cancel := detach(ctx)
	defer cancel()
	if err := a.kv.Delete(ctx, key); err != nil {
		a.fail(ctx, OpDelete, key, err)
	}
}

// SaveCart persists cart lines.
func (a *Adapter) SaveCart(ctx context.Context, key string, lines []domain.CartLine) {
	records := make([]cartRecord, 0, len(lines))
	for _, l := range lines {
		records = append(records, cartRecord{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			AddedAt:   l.AddedAt.UnixMilli(),
		})
	}
	a.Save(ctx, key, records)
}

// LoadCart hydrates cart lines. Missing or corrupt values yield nil.
func (a *Adapter) LoadCart(ctx context.Context, key string) []domain.CartLine {
	var records []cartRecord
	if !a.Load(ctx, key, &records) {
		return nil
	}
	lines := make([]domain.CartLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, domain.CartLine{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			AddedAt:   time.UnixMilli(r.AddedAt).UTC(),
		})
	}
	return lines
}

// SaveWishlist persists wishlist ids.
func (a *Adapter) SaveWishlist(ctx context.Context, key string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	a.Save(ctx, key, ids)
}

// LoadWishlist hydrates wishlist ids. Missing or corrupt values yield nil.
func (a *Adapter) LoadWishlist(ctx context.Context, key string) []string {
	var ids []string
	if !a.Load(ctx, key, &ids) {
		return nil
	}
	return ids
}

// Ping checks the underlying store.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.kv.Ping(ctx)
}
