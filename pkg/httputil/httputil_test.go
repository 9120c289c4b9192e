package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/cardshop/pkg/errors"
	"github.com/utafrali/cardshop/pkg/logger"
	"github.com/utafrali/cardshop/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- WriteJSON / WriteData ---

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, Response{Data: "queued"})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWriteData_WrapsInEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]int{"total": 44600})

	assert.JSONEq(t, `{"data":{"total":44600}}`, rec.Body.String())
}

func TestResponse_OmitsEmptyHalves(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, Response{Error: &ErrorResponse{Code: "ERR", Message: "msg"}})
	assert.JSONEq(t, `{"error":{"code":"ERR","message":"msg"}}`, rec.Body.String())
}

// --- WriteError ---

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/shop/delivery", nil)

	WriteError(rec, req, apperrors.Unprocessable("UNSUPPORTED_COUNTRY", "no delivery to FR", nil), testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_COUNTRY", resp.Error.Code)
	assert.Equal(t, "no delivery to FR", resp.Error.Message)
}

func TestWriteError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/product", nil)

	err := fmt.Errorf("load product: %w", apperrors.NotFound("product", "gold"))
	WriteError(rec, req, err, testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, rec).Error.Code)
}

func TestWriteError_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/shop", nil)

			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeResponse(t, rec).Error.Code)
		})
	}
}

func TestWriteError_InternalMessageIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shop", nil)

	WriteError(rec, req, errors.New("redis: connection refused"), testLogger())

	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shop", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.InvalidInput("quantity must not be negative"), testLogger())

	assert.Equal(t, "corr-123", decodeResponse(t, rec).Error.RequestID)
}

func TestWriteError_NoCorrelationID_OmitsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shop", nil)

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	assert.NotContains(t, rec.Body.String(), "request_id")
}

// --- WriteValidationError ---

func TestWriteValidationError_Fields(t *testing.T) {
	type body struct {
		Type string `json:"type" validate:"required"`
	}
	err := validator.Validate(body{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["type"])
}

func TestWriteValidationError_NonValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("decode request body: unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeResponse(t, rec).Error.Code)
}

// --- DecodeData ---

func TestDecodeData_Success(t *testing.T) {
	var dst struct {
		MaxCards int `json:"max_cards"`
	}
	err := DecodeData(strings.NewReader(`{"data":{"max_cards":10}}`), &dst)
	require.NoError(t, err)
	assert.Equal(t, 10, dst.MaxCards)
}

func TestDecodeData_ErrorEnvelope(t *testing.T) {
	var dst map[string]any
	err := DecodeData(strings.NewReader(`{"error":{"code":"NOT_FOUND","message":"no such tier"}}`), &dst)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
}

func TestDecodeData_MissingData(t *testing.T) {
	var dst map[string]any
	assert.Error(t, DecodeData(strings.NewReader(`{}`), &dst))
	assert.Error(t, DecodeData(strings.NewReader(`{"data":null}`), &dst))
}

func TestDecodeData_Malformed(t *testing.T) {
	var dst map[string]any
	assert.Error(t, DecodeData(strings.NewReader(`not json`), &dst))
}
