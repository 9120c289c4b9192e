package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemRequest struct {
	Type     string `json:"type" validate:"required,oneof=sponsor logo graphic"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=1000"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(itemRequest{Type: "logo", Quantity: 3}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(itemRequest{}))
	assert.Equal(t, "is required", fields["type"])
	assert.NotContains(t, fields, "Type")
}

func TestValidate_OneOf(t *testing.T) {
	fields := fieldsOf(t, Validate(itemRequest{Type: "banner"}))
	assert.Equal(t, "must be one of: sponsor logo graphic", fields["type"])
}

func TestRegisterEnum(t *testing.T) {
	RegisterEnum("test_country", []string{"CH", "IT"})

	type deliveryRequest struct {
		Country string `json:"country" validate:"required,test_country"`
	}
	assert.NoError(t, Validate(deliveryRequest{Country: "IT"}))

	fields := fieldsOf(t, Validate(deliveryRequest{Country: "FR"}))
	assert.Equal(t, "must be one of: CH IT", fields["country"])
}

func TestValidate_Range(t *testing.T) {
	fields := fieldsOf(t, Validate(itemRequest{Type: "sponsor", Quantity: -1}))
	assert.Contains(t, fields["quantity"], "greater than or equal to 0")

	fields = fieldsOf(t, Validate(itemRequest{Type: "sponsor", Quantity: 1001}))
	assert.Contains(t, fields["quantity"], "1000")
}

func TestValidate_MultipleErrors(t *testing.T) {
	fields := fieldsOf(t, Validate(loginRequest{Login: strings.Repeat("x", 65)}))
	assert.Contains(t, fields["login"], "at most 64")
	assert.Equal(t, "is required", fields["password"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(loginRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'login' is required")
	assert.Contains(t, err.Error(), "field 'password' is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"graphic","quantity":5}`))

	var body itemRequest
	require.NoError(t, DecodeAndValidate(req, &body))
	assert.Equal(t, itemRequest{Type: "graphic", Quantity: 5}, body)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var body itemRequest
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"logo","quantity":1,"price":1}`))

	var body itemRequest
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestDecodeAndValidate_TrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"logo","quantity":1}{"type":"logo"}`))

	var body itemRequest
	assert.Error(t, DecodeAndValidate(req, &body))
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"user_1"}`))

	var body loginRequest
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.Equal(t, "is required", fieldsOf(t, err)["password"])
}
