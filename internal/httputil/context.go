package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// WithRequestID adds a request id to the request context
func WithRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDKey, id)
	return r.WithContext(ctx)
}

// GetRequestID returns the request id, or "" outside the logging middleware
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
