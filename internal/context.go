package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextProfileKey ctxKey = "profileID"

// ProfileIDFromContext returns the browser profile bound to the request.
func ProfileIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if profileID, ok := ctx.Value(ContextProfileKey).(string); ok {
		return profileID
	}
	return ""
}

func ContextWithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ContextProfileKey, profileID)
}

// WithOptionalTimeout bounds ctx only when duration is positive. Remote calls
// carry no default deadline.
func WithOptionalTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, duration)
}
