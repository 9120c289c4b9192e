package http

import (
	"mime"
	"net/http"

	"github.com/utafrali/cardshop/pkg/httputil"
	"github.com/utafrali/cardshop/pkg/logger"
)

// ContentTypeJSON answers 415 when a request declares a body media type other
// than application/json. A missing Content-Type is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/json" {
			httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "UNSUPPORTED_MEDIA_TYPE",
					Message:   "Content-Type must be application/json",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return r.ContentLength > 0
}
