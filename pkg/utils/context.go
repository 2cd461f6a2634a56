package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
	EmailKey  contextKey = "email"
)

const RoleAdmin = "admin"

// CurrentUser is the identity the auth provider vouched for on this request.
type CurrentUser struct {
	ID    uuid.UUID
	Email string
	Role  string
}

func (u CurrentUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetCurrentUser returns the authenticated identity, if any.
func GetCurrentUser(ctx context.Context) (CurrentUser, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return CurrentUser{}, false
	}
	role, _ := GetRoleFromContext(ctx)
	email, _ := ctx.Value(EmailKey).(string)
	return CurrentUser{ID: userID, Email: email, Role: role}, true
}

func SetUserContext(ctx context.Context, user CurrentUser) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	ctx = context.WithValue(ctx, EmailKey, user.Email)
	return ctx
}
