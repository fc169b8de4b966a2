package authctx

import "context"

type ctxKey string

const (
	keyUsername ctxKey = "auth_username"
	keyRID      ctxKey = "auth_rid"
)

// WithUsername stores the authenticated session identity.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, keyUsername, username)
}

// Username returns the authenticated identity if present.
func Username(ctx context.Context) string {
	v, _ := ctx.Value(keyUsername).(string)
	return v
}

// WithRID stores a correlation id for webhook-reconciliation logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}
