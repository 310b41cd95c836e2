package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/storefront"
)

// DefaultBufferSize is the number of changes queued before new ones are
// dropped.
const DefaultBufferSize = 256

var droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "storefront_events_dropped_total",
	Help: "Total number of storefront changes dropped because the event buffer was full",
})

func init() {
	prometheus.MustRegister(droppedTotal)
}

// Forwarder turns storefront changes into Kafka events on a background
// goroutine, so publishing never runs on the mutation path.
type Forwarder struct {
	producer *Producer
	logger   *slog.Logger

	mu      sync.RWMutex
	queue   chan storefront.Change
	started bool
	closed  bool
	done    chan struct{}
}

// NewForwarder creates a forwarder with a queue of bufferSize changes.
func NewForwarder(producer *Producer, bufferSize int, logger *slog.Logger) *Forwarder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Forwarder{
		producer: producer,
		logger:   logger,
		queue:    make(chan storefront.Change, bufferSize),
		done:     make(chan struct{}),
	}
}

// Start runs the publish loop until Close is called. Publish failures are
// logged and the change is dropped. Cancelling ctx does not abort publishing
// of changes already queued.
func (f *Forwarder) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started || f.closed {
		return
	}
	f.started = true

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(f.done)
		for c := range f.queue {
			if err := f.forward(ctx, c); err != nil {
				f.logger.ErrorContext(ctx, "failed to forward storefront change",
					slog.String("kind", string(c.Kind)),
					slog.String("session_id", c.SessionID),
					slog.String("error", err.Error()),
				)
			}
		}
	}()
}

// Attach subscribes the forwarder to a session and returns the unsubscribe
// function.
func (f *Forwarder) Attach(s *storefront.State) func() {
	return s.Subscribe(f.Enqueue)
}

// Enqueue queues a change without blocking. Changes that produce no event
// are skipped; a full queue drops the change.
func (f *Forwarder) Enqueue(c storefront.Change) {
	if !publishable(c.Kind) {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	select {
	case f.queue <- c:
	default:
		droppedTotal.Inc()
		f.logger.Warn("event buffer full, change dropped",
			slog.String("kind", string(c.Kind)),
			slog.String("session_id", c.SessionID),
		)
	}
}

// Close stops accepting changes and waits for queued ones to be published.
func (f *Forwarder) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.queue)
	started := f.started
	f.mu.Unlock()

	if started {
		<-f.done
	}
}

func publishable(kind storefront.ChangeKind) bool {
	switch kind {
	case storefront.ChangeCart, storefront.ChangeCartCleared,
		storefront.ChangeWishlist, storefront.ChangeOrderPlaced:
		return true
	}
	return false
}

func (f *Forwarder) forward(ctx context.Context, c storefront.Change) error {
	switch c.Kind {
	case storefront.ChangeCart:
		return f.producer.PublishCartUpdated(ctx, c.SessionID, c.ProductID, c.Quantity, c.ItemCount, c.Subtotal)
	case storefront.ChangeCartCleared:
		return f.producer.PublishCartCleared(ctx, c.SessionID)
	case storefront.ChangeWishlist:
		return f.producer.PublishWishlistToggled(ctx, c.SessionID, c.ProductID, c.Wishlisted)
	case storefront.ChangeOrderPlaced:
		if c.Order == nil {
			return nil
		}
		return f.producer.PublishOrderPlaced(ctx, c.SessionID, *c.Order)
	}
	return nil
}
