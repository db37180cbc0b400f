package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"kos_service/internal/domain"
)

type CommandService struct {
	repo   domain.KosRepository
	owners domain.OwnerValidator // optional
	now    func() time.Time
}

func NewCommandService(r domain.KosRepository, owners domain.OwnerValidator) *CommandService {
	return &CommandService{repo: r, owners: owners, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *CommandService) WithClock(now func() time.Time) *CommandService {
	s.now = now
	return s
}

// stamp returns the current time at the store's precision (microseconds).
func (s *CommandService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *CommandService) Create(ctx context.Context, in domain.KosInput, ownerID string) (*domain.Kos, error) {
	if err := Validate(in, true); err != nil {
		return nil, err
	}
	if s.owners != nil {
		if err := s.owners.ValidateOwner(ctx, ownerID); err != nil {
			return nil, fmt.Errorf("owner %s: %w", ownerID, err)
		}
	}

	now := s.stamp()
	k := &domain.Kos{
		ID:          uuid.NewString(),
		OwnerUserID: ownerID,
		IsListed:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	k.Apply(in)

	saved, err := s.repo.Save(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("save kos: %w", err)
	}
	log.Info().Str("kos_id", saved.ID).Str("owner_id", ownerID).Str("name", saved.Name).Msg("kos created")
	return saved, nil
}

func (s *CommandService) Update(ctx context.Context, id string, in domain.KosInput, principalID string) (*domain.Kos, error) {
	k, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwnership(k, principalID); err != nil {
		return nil, err
	}
	if err := Validate(in, false); err != nil {
		return nil, err
	}

	k.Apply(in)
	// updatedAt must move forward even when two writes land in the same microsecond
	now := s.stamp()
	if !now.After(k.UpdatedAt) {
		now = k.UpdatedAt.Add(time.Microsecond)
	}
	k.UpdatedAt = now

	saved, err := s.repo.Save(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("save kos %s: %w", id, err)
	}
	log.Info().Str("kos_id", id).Str("user_id", principalID).Msg("kos updated")
	return saved, nil
}

func (s *CommandService) Delete(ctx context.Context, id string, principalID string) error {
	k, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := AssertOwnership(k, principalID); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete kos %s: %w", id, err)
	}
	log.Info().Str("kos_id", id).Str("user_id", principalID).Msg("kos deleted")
	return nil
}

// AdjustOccupancy adds delta to the occupied room count of a listing.
func (s *CommandService) AdjustOccupancy(ctx context.Context, id string, delta int) (*domain.Kos, error) {
	if delta == 0 {
		return nil, domain.NewValidationError("delta", "Occupancy delta must not be zero.")
	}
	k, err := s.repo.AddOccupiedRooms(ctx, id, delta, s.stamp())
	if err != nil {
		return nil, err
	}
	return k, nil
}
