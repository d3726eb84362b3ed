package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIdKey string

// RequestIdKey holds the request's correlation id in the context. The same
// value travels in the X-Request-ID header of both request and response.
const RequestIdKey requestIdKey = "requestId"

// WithRequestId tags every request with a correlation id. An id supplied by
// the caller is kept, so the id survives proxy hops.
func WithRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get("X-Request-ID")
		if reqId == "" {
			reqId = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIdKey, reqId)
		r = r.WithContext(ctx)
		r.Header.Set("X-Request-ID", reqId)
		w.Header().Set("X-Request-ID", reqId)

		next.ServeHTTP(w, r)
	})
}
