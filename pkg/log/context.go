package log

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	runIDKey
	userIDKey
)

// WithRequestID stores the HTTP request id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithRunID stores the dispatch run id on ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithUserID stores the user id on ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// fields returns the key/value pairs carried by ctx.
func fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var kv []any
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		kv = append(kv, "request_id", v)
	}
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		kv = append(kv, "run_id", v)
	}
	if v, ok := ctx.Value(userIDKey).(string); ok && v != "" {
		kv = append(kv, "user_id", v)
	}
	return kv
}
