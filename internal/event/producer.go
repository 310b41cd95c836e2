// Package event publishes storefront domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/checkout"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Kafka topics. The event type equals the topic name.
var (
	TopicCartUpdated     = pkgkafka.Topic("cart", "updated")
	TopicCartCleared     = pkgkafka.Topic("cart", "cleared")
	TopicWishlistToggled = pkgkafka.Topic("wishlist", "toggled")
	TopicOrderPlaced     = pkgkafka.Topic("order", "placed")
)

// Every event is keyed by the session it came from.
const (
	AggregateTypeSession = "session"
	SourceStorefront     = "storefront"
)

// CartUpdatedData is the payload of storefront.cart.updated.
type CartUpdatedData struct {
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	ItemCount int    `json:"item_count"`
	Subtotal  string `json:"subtotal"`
	Currency  string `json:"currency"`
}

// CartClearedData is the payload of storefront.cart.cleared.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// WishlistToggledData is the payload of storefront.wishlist.toggled.
type WishlistToggledData struct {
	SessionID  string `json:"session_id"`
	ProductID  string `json:"product_id"`
	Wishlisted bool   `json:"wishlisted"`
}

// OrderPlacedData is the payload of storefront.order.placed.
type OrderPlacedData struct {
	SessionID string    `json:"session_id"`
	OrderID   string    `json:"order_id"`
	ItemCount int       `json:"item_count"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewProducer creates an event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger, now: time.Now}
}

func (p *Producer) publish(ctx context.Context, topic, sessionID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, sessionID, AggregateTypeSession, SourceStorefront, p.now(), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("session_id", sessionID),
	)
	return nil
}

// PublishCartUpdated publishes a cart line change.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID, productID string, quantity, itemCount int, subtotal decimal.Decimal) error {
	return p.publish(ctx, TopicCartUpdated, sessionID, CartUpdatedData{
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		ItemCount: itemCount,
		Subtotal:  cart.FormatAmount(subtotal),
		Currency:  cart.Currency,
	})
}

// PublishCartCleared publishes the cart being emptied after an order.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	return p.publish(ctx, TopicCartCleared, sessionID, CartClearedData{SessionID: sessionID})
}

// PublishWishlistToggled publishes a wishlist membership change.
func (p *Producer) PublishWishlistToggled(ctx context.Context, sessionID, productID string, wishlisted bool) error {
	return p.publish(ctx, TopicWishlistToggled, sessionID, WishlistToggledData{
		SessionID:  sessionID,
		ProductID:  productID,
		Wishlisted: wishlisted,
	})
}

// PublishOrderPlaced publishes a completed checkout.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, order checkout.Order) error {
	return p.publish(ctx, TopicOrderPlaced, sessionID, OrderPlacedData{
		SessionID: sessionID,
		OrderID:   order.ID,
		ItemCount: order.Items,
		Total:     cart.FormatAmount(order.Total),
		Currency:  cart.Currency,
		PlacedAt:  order.PlacedAt.UTC(),
	})
}
