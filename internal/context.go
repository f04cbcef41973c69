package internal

import "context"

type ctxKey string

const ContextUserKey ctxKey = "userID"

// ContextWithUserID attaches the authenticated user's id to the context.
// Set by the auth middleware; read wherever an action needs an actor.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" for
// unauthenticated paths such as webhook ingestion.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(ContextUserKey).(string)
	return userID
}
