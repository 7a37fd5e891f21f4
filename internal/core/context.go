package core

import (
	"context"
	"log/slog"
)

// Trigger describes who started a batch. It only feeds the batch log.
type Trigger struct {
	Via       string // "http" or "cli"
	Addr      string // client address, after trusted-proxy rewriting
	UserAgent string
	RequestID string
}

type triggerKey struct{}

// WithTrigger attaches t to ctx.
func WithTrigger(ctx context.Context, t Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, t)
}

// TriggerFrom returns the Trigger attached to ctx, if any.
func TriggerFrom(ctx context.Context) (Trigger, bool) {
	t, ok := ctx.Value(triggerKey{}).(Trigger)
	return t, ok
}

// LogValue groups the non-empty fields under one log key.
func (t Trigger) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4)
	add := func(k, v string) {
		if v != "" {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	add("via", t.Via)
	add("addr", t.Addr)
	add("user_agent", t.UserAgent)
	add("request_id", t.RequestID)
	return slog.GroupValue(attrs...)
}
