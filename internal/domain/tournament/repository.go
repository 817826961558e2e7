package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Tournament, error)
	Create(ctx context.Context, item Tournament) error
}
