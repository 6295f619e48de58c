package api

import (
	"context"

	"github.com/masterchelly/microsites/auth"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser stores the authenticated admin on the context
func ctxWithUser(ctx context.Context, user auth.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromCtx returns the user stored by requireAdmin
func userFromCtx(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(userKey).(auth.User)
	return user, ok
}
