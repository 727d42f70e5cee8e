package utils

import (
	"context"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
)

type contextKey string

const (
	ContextUserIDKey    contextKey = "userID"
	ContextPrincipalKey contextKey = "principal"
)

// SessionData is what a session lookup resolves to.
type SessionData struct {
	UserID    string
	Role      access.Role
	CircleID  *string
	IsActive  bool
	ExpiresAt time.Time
}

func (s SessionData) Principal() access.Principal {
	return access.Principal{UserID: s.UserID, Role: s.Role, CircleID: s.CircleID}
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, p.UserID)
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func GetPrincipalFromContext(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(access.Principal)
	return p, ok
}
