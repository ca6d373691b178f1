// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"recyclebin/internal/core/security"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID    string
	Email     string
	Roles     []string
	IsAdmin   bool
	SessionID string
}

// Principal converts the authenticated user into the audit principal passed
// explicitly to lifecycle operations. The first role is reported as the role.
func (u *UserContext) Principal() *security.Principal {
	if u == nil {
		return nil
	}
	p := &security.Principal{ID: u.UserID, Email: u.Email}
	if len(u.Roles) > 0 {
		p.Role = u.Roles[0]
	}
	return p
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
