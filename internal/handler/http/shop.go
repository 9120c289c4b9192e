package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/utafrali/cardshop/internal/domain"
	"github.com/utafrali/cardshop/internal/shop"
	"github.com/utafrali/cardshop/pkg/httputil"
	"github.com/utafrali/cardshop/pkg/validator"
)

// ShopService is the shop behavior the HTTP layer depends on. *shop.Shop
// satisfies it.
type ShopService interface {
	Snapshot() shop.Snapshot
	AddQuantity(ctx context.Context, t domain.LineItemType, qty int) (shop.Snapshot, error)
	RemoveQuantity(ctx context.Context, t domain.LineItemType, qty int) (shop.Snapshot, error)
	EmptyCart(ctx context.Context) shop.Snapshot
	SelectCountry(ctx context.Context, country domain.Country) (shop.Snapshot, error)
	ResetDelivery(ctx context.Context) shop.Snapshot
	LoadProduct(ctx context.Context, productType string) *shop.PendingLoad
	Nodes() []string
	Dependents(name string) []string
}

// ShopHandler handles HTTP requests for shop endpoints.
type ShopHandler struct {
	shop   ShopService
	logger *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(s ShopService, logger *slog.Logger) *ShopHandler {
	registerLineItemTag()
	return &ShopHandler{
		shop:   s,
		logger: logger,
	}
}

// --- Request DTOs ---

var registerValidations sync.Once

// registerLineItemTag backs the line_item tag with domain.LineItemTypes.
func registerLineItemTag() {
	registerValidations.Do(func() {
		types := domain.LineItemTypes()
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		validator.RegisterEnum("line_item", names)
	})
}

// ItemRequest is the JSON body for adding or removing cards.
type ItemRequest struct {
	Type     string `json:"type" validate:"required,line_item"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=1000"`
}

// DeliveryRequest is the JSON body for selecting a delivery country.
type DeliveryRequest struct {
	Country string `json:"country" validate:"required,max=8"`
}

// ProductRequest is the JSON body for loading a product. With Wait set the
// request blocks until the load resolves.
type ProductRequest struct {
	Type string `json:"type" validate:"required,max=64"`
	Wait bool   `json:"wait"`
}

// --- Handlers ---

// GetShop handles GET /api/v1/shop
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.shop.Snapshot())
}

// GraphResponse describes the shop's derived-value graph.
type GraphResponse struct {
	Nodes      []string            `json:"nodes"`
	Dependents map[string][]string `json:"dependents"`
}

// Graph handles GET /debug/shop/graph: every node, and the derived values
// each store recomputes.
func (h *ShopHandler) Graph(w http.ResponseWriter, r *http.Request) {
	resp := GraphResponse{
		Nodes:      h.shop.Nodes(),
		Dependents: make(map[string][]string, 3),
	}
	for _, store := range []string{shop.NodeCart, shop.NodeProduct, shop.NodeDelivery} {
		resp.Dependents[store] = h.shop.Dependents(store)
	}
	httputil.WriteData(w, http.StatusOK, resp)
}

// AddItem handles POST /api/v1/shop/cart/items
func (h *ShopHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.shop.AddQuantity(r.Context(), domain.LineItemType(req.Type), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, snap)
}

// RemoveItem handles POST /api/v1/shop/cart/items/remove. A removal that
// would go below zero is ignored and still answered with 200.
func (h *ShopHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.shop.RemoveQuantity(r.Context(), domain.LineItemType(req.Type), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, snap)
}

// EmptyCart handles DELETE /api/v1/shop/cart
func (h *ShopHandler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.shop.EmptyCart(r.Context()))
}

// SelectDelivery handles PUT /api/v1/shop/delivery
func (h *ShopHandler) SelectDelivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	snap, err := h.shop.SelectCountry(r.Context(), domain.Country(req.Country))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, snap)
}

// ResetDelivery handles DELETE /api/v1/shop/delivery
func (h *ShopHandler) ResetDelivery(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.shop.ResetDelivery(r.Context()))
}

// LoadProduct handles POST /api/v1/shop/product
func (h *ShopHandler) LoadProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	pending := h.shop.LoadProduct(r.Context(), req.Type)
	if !req.Wait {
		httputil.WriteData(w, http.StatusAccepted, h.shop.Snapshot())
		return
	}

	if _, err := pending.Wait(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.shop.Snapshot())
}
