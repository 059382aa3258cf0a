package core

import "context"

type contextKey string

const ctxKeyOrigin contextKey = "ingest_origin"

// Origin describes where an ingestion request came from. It is attached to
// the ingestion's log entries.
type Origin struct {
	Channel    string // "cli" or "http"
	RemoteAddr string
	UserAgent  string
}

// ContextWithOrigin attaches the request origin to ctx.
func ContextWithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, o)
}

// OriginFromContext returns the origin attached to ctx, if any.
func OriginFromContext(ctx context.Context) (Origin, bool) {
	o, ok := ctx.Value(ctxKeyOrigin).(Origin)
	return o, ok
}

// logAttrs returns the non-empty origin fields as slog key/value pairs.
func (o Origin) logAttrs() []any {
	var attrs []any
	if o.Channel != "" {
		attrs = append(attrs, "channel", o.Channel)
	}
	if o.RemoteAddr != "" {
		attrs = append(attrs, "remote_addr", o.RemoteAddr)
	}
	if o.UserAgent != "" {
		attrs = append(attrs, "user_agent", o.UserAgent)
	}
	return attrs
}
