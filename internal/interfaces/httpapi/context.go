package httpapi

import (
	"context"

	"github.com/bracketlab/tournament-platform/internal/domain/identity"
)

type contextKey string

const identityContextKey contextKey = "auth_identity"

func withIdentity(ctx context.Context, snap *identity.Snapshot) context.Context {
	return context.WithValue(ctx, identityContextKey, snap)
}

// identityFromContext returns the snapshot attached by RequireAuth, or nil
// for guest requests. Both return shapes are valid principals downstream.
func identityFromContext(ctx context.Context) *identity.Snapshot {
	snap, _ := ctx.Value(identityContextKey).(*identity.Snapshot)
	return snap
}
