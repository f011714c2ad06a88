// Package logger builds the structured logger used across portalctl.
// Records are JSON encoded and enriched with request-scoped attributes
// pulled from the context at log time.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// HandlerDecorator wraps a slog.Handler and injects context-extracted
// attributes on every record.
type HandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewHandlerDecorator decorates next with the non-nil extractors.
func NewHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &HandlerDecorator{next: next, extractors: clean}
}

func (h *HandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds extracted attributes and delegates.
func (h *HandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *HandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &HandlerDecorator{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *HandlerDecorator) WithGroup(name string) slog.Handler {
	return &HandlerDecorator{next: h.next.WithGroup(name), extractors: h.extractors}
}

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level string, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}

	return slog.New(NewHandlerDecorator(h, extractors...))
}

// NewFile opens (or creates) path in append mode and returns a logger on it
// together with the file so the caller can close it.
func NewFile(path, level string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	return New(f, level), f, nil
}

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
