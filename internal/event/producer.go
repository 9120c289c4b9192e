package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/cardshop/internal/domain"
	pkgkafka "github.com/utafrali/cardshop/pkg/kafka"
	"github.com/utafrali/cardshop/pkg/logger"
)

// Topics written by the shop.
var (
	TopicCartUpdated     = pkgkafka.Topic("cart", "updated")
	TopicCartEmptied     = pkgkafka.Topic("cart", "emptied")
	TopicDeliveryChanged = pkgkafka.Topic("delivery", "changed")
	TopicProductLoaded   = pkgkafka.Topic("product", "loaded")
	TopicCurrencyChanged = pkgkafka.Topic("currency", "changed")
)

// Aggregate type constants.
const (
	AggregateTypeShop    = "shop"
	AggregateTypeAccount = "account"
)

// SourceCardShop identifies events originating from this service.
const SourceCardShop = "cardshop"

// CartUpdatedData is the payload for a cart.updated event. Seq on every shop
// payload orders the state changes of one session: a consumer keeps the
// highest seq it has seen and drops anything older.
type CartUpdatedData struct {
	SessionID      string             `json:"session_id"`
	Seq            uint64             `json:"seq"`
	Cart           domain.Cart        `json:"cart"`
	TotalCardCount int                `json:"total_card_count"`
	CartTotal      int64              `json:"cart_total"`
	Subtotal       int64              `json:"subtotal"`
	Total          int64              `json:"total"`
	Limit          domain.LimitStatus `json:"limit"`
	CanCheckout    bool               `json:"can_checkout"`
}

// CartEmptiedData is the payload for a cart.emptied event.
type CartEmptiedData struct {
	SessionID string `json:"session_id"`
	Seq       uint64 `json:"seq"`
}

// DeliveryChangedData is the payload for a delivery.changed event. A reset
// delivery carries country NONE.
type DeliveryChangedData struct {
	SessionID   string         `json:"session_id"`
	Seq         uint64         `json:"seq"`
	Country     domain.Country `json:"country"`
	Fee         int64          `json:"fee"`
	Total       int64          `json:"total"`
	CanCheckout bool           `json:"can_checkout"`
}

// ProductLoadedData is the payload for a product.loaded event.
type ProductLoadedData struct {
	SessionID   string         `json:"session_id"`
	Seq         uint64         `json:"seq"`
	ProductType string         `json:"product_type"`
	Product     domain.Product `json:"product"`
}

// CurrencyChangedData is the payload for a currency.changed event.
type CurrencyChangedData struct {
	Login    string `json:"login"`
	Currency string `json:"currency"`
}

// Writer publishes an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Writer interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes shop domain events.
type Producer struct {
	writer Writer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the card shop.
func NewProducer(writer Writer, logger *slog.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	return p.publish(ctx, TopicCartUpdated, data.SessionID, AggregateTypeShop, data)
}

// PublishCartEmptied publishes a cart.emptied event.
func (p *Producer) PublishCartEmptied(ctx context.Context, data CartEmptiedData) error {
	return p.publish(ctx, TopicCartEmptied, data.SessionID, AggregateTypeShop, data)
}

// PublishDeliveryChanged publishes a delivery.changed event.
func (p *Producer) PublishDeliveryChanged(ctx context.Context, data DeliveryChangedData) error {
	return p.publish(ctx, TopicDeliveryChanged, data.SessionID, AggregateTypeShop, data)
}

// PublishProductLoaded publishes a product.loaded event.
func (p *Producer) PublishProductLoaded(ctx context.Context, data ProductLoadedData) error {
	return p.publish(ctx, TopicProductLoaded, data.SessionID, AggregateTypeShop, data)
}

// PublishCurrencyChanged publishes a currency.changed event.
func (p *Producer) PublishCurrencyChanged(ctx context.Context, data CurrencyChangedData) error {
	return p.publish(ctx, TopicCurrencyChanged, data.Login, AggregateTypeAccount, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCardShop, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.writer.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// Discard is a Writer used when Kafka is disabled. Events are logged at
// debug level and dropped.
type Discard struct {
	Logger *slog.Logger
}

// Publish logs the event and returns nil.
func (d Discard) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	if d.Logger != nil {
		d.Logger.DebugContext(ctx, "kafka disabled, event dropped",
			slog.String("topic", topic),
			slog.String("event_id", event.EventID),
		)
	}
	return nil
}
