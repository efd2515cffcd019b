// Package session carries the authenticated caller through a request.
package session

import (
	"context"

	"eventstaff-backend/internal/domain"
)

// Session identifies who is calling. It is built once per request from the
// access token and passed down explicitly.
type Session struct {
	UserID string
	Email  string
	Role   domain.UserRole
}

func (s Session) IsAdmin() bool {
	return s.Role == domain.UserRoleAdmin
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok && s.UserID != ""
}
