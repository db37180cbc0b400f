package app

import (
	"fmt"

	"kos_service/internal/domain"
)

// AssertOwnership fails with domain.ErrForbidden unless principalID owns k.
func AssertOwnership(k *domain.Kos, principalID string) error {
	if k.OwnerUserID != principalID {
		return fmt.Errorf("user %s may not modify kos %s: %w", principalID, k.ID, domain.ErrForbidden)
	}
	return nil
}
