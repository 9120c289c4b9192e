package shop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/cardshop/internal/catalog"
	"github.com/utafrali/cardshop/internal/domain"
	"github.com/utafrali/cardshop/internal/event"
	"github.com/utafrali/cardshop/internal/graph"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
	"github.com/utafrali/cardshop/pkg/tracing"
)

// MaxQuantityPerAction bounds the quantity a single add or remove may carry.
const MaxQuantityPerAction = 1000

// Node names registered in the shop graph.
const (
	NodeCart           = "cart"
	NodeProduct        = "product"
	NodeDelivery       = "delivery"
	NodeTotalCardCount = "totalCardCount"
	NodeCartTotal      = "cartTotal"
	NodeSubtotal       = "subtotal"
	NodeTotal          = "total"
	NodeLimit          = "limit"
	NodeCanCheckout    = "canCheckout"
)

var productLoads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shop_product_loads_total",
		Help: "Completed product loads by result (success, failure).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(productLoads)
}

var errShuttingDown = apperrors.ServiceUnavailable("shop is shutting down")

// Publisher receives shop events once a state change has been applied.
// *event.Producer satisfies it.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, data event.CartUpdatedData) error
	PublishCartEmptied(ctx context.Context, data event.CartEmptiedData) error
	PublishDeliveryChanged(ctx context.Context, data event.DeliveryChangedData) error
	PublishProductLoaded(ctx context.Context, data event.ProductLoadedData) error
}

// Snapshot is a consistent view of every store and derived value.
type Snapshot struct {
	SessionID      string                   `json:"session_id"`
	Seq            uint64                   `json:"seq"`
	Cart           domain.Cart              `json:"cart"`
	ProductType    string                   `json:"product_type,omitempty"`
	Product        domain.Product           `json:"product"`
	Delivery       domain.DeliverySelection `json:"delivery"`
	TotalCardCount int                      `json:"total_card_count"`
	CartTotal      int64                    `json:"cart_total"`
	Subtotal       int64                    `json:"subtotal"`
	Total          int64                    `json:"total"`
	Limit          domain.LimitStatus       `json:"limit"`
	CanCheckout    bool                     `json:"can_checkout"`
	Loading        bool                     `json:"loading"`
}

// Shop owns the cart, product and delivery stores of a single session and
// the aggregates derived from them. Every action runs to completion under mu,
// so derived values are never observed stale. Events are published after mu
// is released and may reach the broker out of order; seq, bumped under mu on
// every applied change, restores the order.
type Shop struct {
	id        string
	loader    catalog.Loader
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer

	mu          sync.Mutex
	g           *graph.Graph
	cart        *graph.Source[domain.Cart]
	product     *graph.Source[domain.Product]
	delivery    *graph.Source[domain.DeliverySelection]
	count       *graph.Node[int]
	cartTotal   *graph.Node[int64]
	subtotal    *graph.Node[int64]
	total       *graph.Node[int64]
	limit       *graph.Node[domain.LimitStatus]
	canCheckout *graph.Node[bool]
	productType string
	seq         uint64
	loading     int
	closed      bool

	loads sync.WaitGroup
}

// New creates a shop with an empty cart, no delivery and the placeholder
// product.
func New(loader catalog.Loader, publisher Publisher, logger *slog.Logger) *Shop {
	g := graph.New()
	cart := graph.NewSource(g, NodeCart, domain.Cart{})
	product := graph.NewSource(g, NodeProduct, domain.PlaceholderProduct())
	delivery := graph.NewSource(g, NodeDelivery, domain.NoDelivery())

	count := graph.Map(g, NodeTotalCardCount, cart, domain.TotalCardCount)
	cartTotal := graph.Combine(g, NodeCartTotal, cart, product, domain.CartTotal)
	subtotal := graph.Combine(g, NodeSubtotal, cartTotal, product, domain.Subtotal)
	total := graph.Combine(g, NodeTotal, subtotal, delivery, domain.Total)
	limit := graph.Combine(g, NodeLimit, count, product, domain.CheckLimit)
	canCheckout := graph.Combine(g, NodeCanCheckout, delivery, limit, domain.CanCheckout)

	return &Shop{
		id:          uuid.NewString(),
		loader:      loader,
		publisher:   publisher,
		logger:      logger,
		tracer:      tracing.Tracer("github.com/utafrali/cardshop/internal/shop"),
		g:           g,
		cart:        cart,
		product:     product,
		delivery:    delivery,
		count:       count,
		cartTotal:   cartTotal,
		subtotal:    subtotal,
		total:       total,
		limit:       limit,
		canCheckout: canCheckout,
	}
}

// ID returns the session id carried on every event.
func (s *Shop) ID() string {
	return s.id
}

// Snapshot returns the current state.
func (s *Shop) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shop) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:      s.id,
		Seq:            s.seq,
		Cart:           s.cart.Get(),
		ProductType:    s.productType,
		Product:        s.product.Get().Clone(),
		Delivery:       s.delivery.Get(),
		TotalCardCount: s.count.Get(),
		CartTotal:      s.cartTotal.Get(),
		Subtotal:       s.subtotal.Get(),
		Total:          s.total.Get(),
		Limit:          s.limit.Get(),
		CanCheckout:    s.canCheckout.Get(),
		Loading:        s.loading > 0,
	}
}

func validateAction(t domain.LineItemType, qty int) error {
	if _, err := domain.ParseLineItemType(string(t)); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if qty < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}
	if qty > MaxQuantityPerAction {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerAction))
	}
	return nil
}

// AddQuantity adds qty cards of type t to the cart.
func (s *Shop) AddQuantity(ctx context.Context, t domain.LineItemType, qty int) (Snapshot, error) {
	if err := validateAction(t, qty); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	recomputed := s.cart.Update(func(c domain.Cart) domain.Cart {
		return domain.Increment(c, t, qty)
	})
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart quantity added",
		slog.String("type", string(t)),
		slog.Int("quantity", qty),
		slog.Int("total_card_count", snap.TotalCardCount),
	)
	s.logger.DebugContext(ctx, "aggregates recomputed", slog.Any("nodes", recomputed))

	s.publishCartUpdated(ctx, snap)
	return snap, nil
}

// RemoveQuantity removes qty cards of type t from the cart. A removal that
// would drive the quantity below zero is dropped without any trace and the
// unchanged state is returned.
func (s *Shop) RemoveQuantity(ctx context.Context, t domain.LineItemType, qty int) (Snapshot, error) {
	if err := validateAction(t, qty); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if !domain.CanRemove(s.cart.Get(), t, qty) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	recomputed := s.cart.Update(func(c domain.Cart) domain.Cart {
		return domain.Decrement(c, t, qty)
	})
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart quantity removed",
		slog.String("type", string(t)),
		slog.Int("quantity", qty),
		slog.Int("total_card_count", snap.TotalCardCount),
	)
	s.logger.DebugContext(ctx, "aggregates recomputed", slog.Any("nodes", recomputed))

	s.publishCartUpdated(ctx, snap)
	return snap, nil
}

// EmptyCart resets every quantity to zero.
func (s *Shop) EmptyCart(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.cart.Reset()
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart emptied")

	if err := s.publisher.PublishCartEmptied(ctx, event.CartEmptiedData{SessionID: s.id, Seq: snap.Seq}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.emptied event",
			slog.String("error", err.Error()),
		)
	}
	return snap
}

// SelectCountry sets the delivery country, taking its fee from the current
// product. A country the product does not deliver to leaves the state as is.
func (s *Shop) SelectCountry(ctx context.Context, country domain.Country) (Snapshot, error) {
	s.mu.Lock()
	sel, err := domain.SelectCountry(s.product.Get(), country)
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, apperrors.Unprocessable("UNSUPPORTED_COUNTRY",
			fmt.Sprintf("delivery to %q is not available", country), err)
	}
	s.delivery.Set(sel)
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "delivery country selected",
		slog.String("country", string(sel.Country)),
		slog.Int64("fee", sel.Fee),
	)

	s.publishDeliveryChanged(ctx, snap)
	return snap, nil
}

// ResetDelivery clears the delivery selection.
func (s *Shop) ResetDelivery(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.delivery.Reset()
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "delivery reset")

	s.publishDeliveryChanged(ctx, snap)
	return snap
}

// LoadProduct starts loading productType in the background. Cart and delivery
// actions keep working while the load is in flight. On success the product
// store is replaced wholesale; on failure it keeps its previous value. The
// load does not follow ctx cancellation.
func (s *Shop) LoadProduct(ctx context.Context, productType string) *PendingLoad {
	pending := newPendingLoad(productType)
	if productType == "" {
		pending.resolve(domain.Product{}, apperrors.InvalidInput("product type is required"))
		return pending
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		pending.resolve(domain.Product{}, errShuttingDown)
		return pending
	}
	s.loading++
	s.loads.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loads.Done()
		s.runLoad(context.WithoutCancel(ctx), pending)
	}()

	return pending
}

func (s *Shop) runLoad(ctx context.Context, pending *PendingLoad) {
	ctx, span := s.tracer.Start(ctx, "shop.LoadProduct",
		trace.WithAttributes(attribute.String("product.type", pending.productType)),
	)
	defer span.End()

	product, err := s.loader.Load(ctx, pending.productType)
	if err == nil {
		if verr := product.Validate(); verr != nil {
			err = fmt.Errorf("invalid product %q: %w", pending.productType, verr)
		}
	}

	var seq uint64
	s.mu.Lock()
	s.loading--
	if err == nil {
		product = product.Clone()
		s.product.Set(product)
		s.productType = pending.productType
		s.seq++
		seq = s.seq
	}
	s.mu.Unlock()

	if err != nil {
		productLoads.WithLabelValues("failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "product load failed",
			slog.String("product_type", pending.productType),
			slog.String("error", err.Error()),
		)
		pending.resolve(domain.Product{}, fmt.Errorf("load product %q: %w", pending.productType, err))
		return
	}

	productLoads.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "product loaded",
		slog.String("product_type", pending.productType),
		slog.Int("max_cards", product.MaxCards),
	)

	if err := s.publisher.PublishProductLoaded(ctx, event.ProductLoadedData{
		SessionID:   s.id,
		Seq:         seq,
		ProductType: pending.productType,
		Product:     product,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.loaded event",
			slog.String("error", err.Error()),
		)
	}

	pending.resolve(product.Clone(), nil)
}

// Shutdown refuses new product loads and waits for in-flight ones to finish
// or ctx to end.
func (s *Shop) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.loads.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for product loads: %w", ctx.Err())
	}
}

// Check reports the shop unready once Shutdown has begun.
func (s *Shop) Check(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errShuttingDown
	}
	return nil
}

// Nodes lists every store and derived value in registration order.
func (s *Shop) Nodes() []string {
	return s.g.Names()
}

// Dependents lists the derived values recomputed when the named store changes.
func (s *Shop) Dependents(name string) []string {
	return s.g.Dependents(name)
}

func (s *Shop) publishCartUpdated(ctx context.Context, snap Snapshot) {
	err := s.publisher.PublishCartUpdated(ctx, event.CartUpdatedData{
		SessionID:      s.id,
		Seq:            snap.Seq,
		Cart:           snap.Cart,
		TotalCardCount: snap.TotalCardCount,
		CartTotal:      snap.CartTotal,
		Subtotal:       snap.Subtotal,
		Total:          snap.Total,
		Limit:          snap.Limit,
		CanCheckout:    snap.CanCheckout,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Shop) publishDeliveryChanged(ctx context.Context, snap Snapshot) {
	err := s.publisher.PublishDeliveryChanged(ctx, event.DeliveryChangedData{
		SessionID:   s.id,
		Seq:         snap.Seq,
		Country:     snap.Delivery.Country,
		Fee:         snap.Delivery.Fee,
		Total:       snap.Total,
		CanCheckout: snap.CanCheckout,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish delivery.changed event",
			slog.String("error", err.Error()),
		)
	}
}
