package httpapi

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
)

type ctxKey string

const identityKey ctxKey = "rewards.identity"

type identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// withIdentity stores the authenticated caller in the context.
func withIdentity(ctx context.Context, id identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFromCtx fetches the authenticated caller from the context.
func identityFromCtx(ctx context.Context) (identity, bool) {
	v, ok := ctx.Value(identityKey).(identity)
	return v, ok
}
