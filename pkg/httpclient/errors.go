package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

const maxErrorBody = 1 << 16

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ResponseError turns a non-2xx response from service into an error and
// closes its body.
//
// 5xx answers become *UpstreamError; a 503 is additionally wrapped in a
// SERVICE_UNAVAILABLE AppError. 4xx answers that carry the standard error
// envelope keep the upstream code and map onto the matching AppError.
func ResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read %s error body (status %d): %w", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	structured := json.Unmarshal(raw, &env) == nil && env.Error != nil

	if resp.StatusCode >= http.StatusInternalServerError {
		upstream := &UpstreamError{Service: service, Status: resp.StatusCode, Body: string(raw)}
		if structured {
			upstream.Body = env.Error.Message
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			unavailable := apperrors.ServiceUnavailable(fmt.Sprintf("%s is temporarily unavailable", service))
			unavailable.Err = errors.Join(apperrors.ErrServiceUnavail, upstream)
			return unavailable
		}
		return upstream
	}

	if !structured {
		if resp.StatusCode == http.StatusNotFound {
			return apperrors.NotFound(service, requestPath(resp))
		}
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, raw)
	}

	code, message := env.Error.Code, fmt.Sprintf("%s: %s", service, env.Error.Message)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound(service, env.Error.Message)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case http.StatusConflict:
		return apperrors.Conflict(message)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(code, message, nil)
	case http.StatusUnprocessableEntity:
		return apperrors.Unprocessable(code, message, nil)
	}
	return &apperrors.AppError{Code: code, Message: message, Status: resp.StatusCode}
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "unknown"
	}
	return resp.Request.URL.Path
}
