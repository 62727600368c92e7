package auth

import "context"

type ctxKey string

const contextVisibilityKey ctxKey = "visibility"

func ContextWithVisibility(ctx context.Context, v *Visibility) context.Context {
	return context.WithValue(ctx, contextVisibilityKey, v)
}

// VisibilityFromContext returns the projection stored by RequireSession.
func VisibilityFromContext(ctx context.Context) (*Visibility, bool) {
	v, ok := ctx.Value(contextVisibilityKey).(*Visibility)
	return v, ok && v != nil
}
