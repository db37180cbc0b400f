package app

import (
	"context"
	"strings"

	"kos_service/internal/domain"
)

type QueryService struct {
	repo domain.KosRepository
}

func NewQueryService(r domain.KosRepository) *QueryService {
	return &QueryService{repo: r}
}

func (s *QueryService) FindByID(ctx context.Context, id string) (*domain.Kos, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *QueryService) FindAll(ctx context.Context) ([]domain.Kos, error) {
	return nonNil(s.repo.FindAll(ctx))
}

func (s *QueryService) FindByOwner(ctx context.Context, ownerID string) ([]domain.Kos, error) {
	return nonNil(s.repo.FindByOwner(ctx, ownerID))
}

// Search matches keyword against name, address and description.
// A blank keyword yields an empty result without touching the store.
func (s *QueryService) Search(ctx context.Context, keyword string) ([]domain.Kos, error) {
	if strings.TrimSpace(keyword) == "" {
		return []domain.Kos{}, nil
	}
	return nonNil(s.repo.Search(ctx, keyword))
}

// nonNil keeps JSON output as [] rather than null.
func nonNil(ks []domain.Kos, err error) ([]domain.Kos, error) {
	if err != nil {
		return nil, err
	}
	if ks == nil {
		ks = []domain.Kos{}
	}
	return ks, nil
}
