package util

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// GetUserFromContext 沒有登入時回傳 nil
func GetUserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(constants.AuthorizationPayloadKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, constants.AuthorizationPayloadKey, user)
}

func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(constants.SessionIDKey).(string)
	return id
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, constants.SessionIDKey, sessionID)
}

func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return id
	}
	return "unknown"
}
