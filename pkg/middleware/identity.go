package middleware

import "context"

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// WithUserID returns a context carrying the authenticated user's ID. The
// session middleware calls this after resolving the current identity so the
// request logger can attach user_id to every log line.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the user ID from the request context, or ""
// when the request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
