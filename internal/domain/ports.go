package domain

import (
	"context"
	"time"
)

type KosRepository interface {
	// Write paths
	Save(ctx context.Context, k *Kos) (*Kos, error)
	DeleteByID(ctx context.Context, id string) error
	AddOccupiedRooms(ctx context.Context, id string, delta int, at time.Time) (*Kos, error)

	// Read paths
	FindByID(ctx context.Context, id string) (*Kos, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Kos, error)
	FindAll(ctx context.Context) ([]Kos, error)
	Search(ctx context.Context, keyword string) ([]Kos, error)
}

// TokenVerifier turns a bearer token into a principal by asking the auth service.
// It returns ErrUnauthenticated when the token is rejected and
// ErrUpstreamUnavailable when the service cannot be reached.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// OwnerValidator confirms that an account may own listings.
// It returns ErrInvalidOwner or ErrUpstreamUnavailable.
type OwnerValidator interface {
	ValidateOwner(ctx context.Context, ownerID string) error
}
