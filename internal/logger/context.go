package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	resourceKey
)

// WithRequestID tags ctx with the id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithResource tags ctx with the resource a view operates on.
func WithResource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, resourceKey, name)
}

// Resource returns the resource name carried by ctx.
func Resource(ctx context.Context) string {
	r, _ := ctx.Value(resourceKey).(string)
	return r
}

// DefaultExtractors returns the request id and resource extractors.
func DefaultExtractors() []ContextExtractor {
	return []ContextExtractor{requestIDExtractor, resourceExtractor}
}

func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := RequestID(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}

func resourceExtractor(ctx context.Context) (slog.Attr, bool) {
	if r := Resource(ctx); r != "" {
		return slog.String("resource", r), true
	}
	return slog.Attr{}, false
}
