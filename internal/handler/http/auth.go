package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/cardshop/internal/auth"
	"github.com/utafrali/cardshop/pkg/httputil"
	"github.com/utafrali/cardshop/pkg/validator"
)

// AuthService is the login behavior the HTTP layer depends on.
type AuthService interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.LoginResult, error)
	Currency() string
}

// AuthHandler handles HTTP requests for login endpoints.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   svc,
		logger: logger,
	}
}

// CurrencyResponse is the JSON body returned for the active currency.
type CurrencyResponse struct {
	Currency string `json:"currency"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.Credentials
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetCurrency handles GET /api/v1/auth/currency
func (h *AuthHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, CurrencyResponse{Currency: h.auth.Currency()})
}
