package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// ContextHandler adds attributes pulled from the record's context. An
// extracted attribute is dropped when it is empty or when the call site or
// a WithAttrs ancestor already set the same top-level key, so an explicit
// logger.UserID(id) is never logged twice.
type ContextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
	// bound holds top-level keys added through WithAttrs.
	bound   map[string]struct{}
	grouped bool
}

// NewContextHandler wraps next. Nil extractors are dropped.
func NewContextHandler(next slog.Handler, extractors ...ContextExtractor) *ContextHandler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &ContextHandler{next: next, extractors: clean}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) == 0 {
		return h.next.Handle(ctx, rec)
	}

	var seen map[string]struct{}
	if !h.grouped {
		seen = make(map[string]struct{}, rec.NumAttrs()+len(h.bound))
		for k := range h.bound {
			seen[k] = struct{}{}
		}
		rec.Attrs(func(a slog.Attr) bool {
			seen[a.Key] = struct{}{}
			return true
		})
	}

	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok || attr.Equal(slog.Attr{}) {
			continue
		}
		if _, dup := seen[attr.Key]; dup {
			continue
		}
		if seen != nil {
			seen[attr.Key] = struct{}{}
		}
		rec.AddAttrs(attr)
	}
	return h.next.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.next = h.next.WithAttrs(attrs)
	if !h.grouped {
		c.bound = make(map[string]struct{}, len(h.bound)+len(attrs))
		for k := range h.bound {
			c.bound[k] = struct{}{}
		}
		for _, a := range attrs {
			c.bound[a.Key] = struct{}{}
		}
	}
	return c
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.next = h.next.WithGroup(name)
	c.grouped = true
	return c
}

func (h *ContextHandler) clone() *ContextHandler {
	c := *h
	return &c
}
