package app_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"kos_service/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu    sync.Mutex
	rows  map[string]domain.Kos
	saves int
	finds int
	fail  error // returned by every write when set
}

func newFakeRepo(seed ...domain.Kos) *fakeRepo {
	r := &fakeRepo{rows: map[string]domain.Kos{}}
	for _, k := range seed {
		r.rows[k.ID] = k
	}
	return r
}

func (f *fakeRepo) Save(ctx context.Context, k *domain.Kos) (*domain.Kos, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.fail != nil {
		return nil, f.fail
	}
	f.rows[k.ID] = *k
	out := *k
	return &out, nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) AddOccupiedRooms(ctx context.Context, id string, delta int, at time.Time) (*domain.Kos, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	k, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	k.OccupiedRooms += delta
	if k.OccupiedRooms < 0 {
		k.OccupiedRooms = 0
	}
	k.UpdatedAt = at
	f.rows[id] = k
	return &k, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*domain.Kos, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	k, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &k, nil
}

func (f *fakeRepo) FindByOwner(ctx context.Context, ownerID string) ([]domain.Kos, error) {
	return f.filter(func(k domain.Kos) bool { return k.OwnerUserID == ownerID }), nil
}

func (f *fakeRepo) FindAll(ctx context.Context) ([]domain.Kos, error) {
	return f.filter(func(domain.Kos) bool { return true }), nil
}

func (f *fakeRepo) Search(ctx context.Context, keyword string) ([]domain.Kos, error) {
	f.mu.Lock()
	f.finds++
	f.mu.Unlock()
	kw := strings.ToLower(keyword)
	return f.filter(func(k domain.Kos) bool {
		desc := ""
		if k.Description != nil {
			desc = *k.Description
		}
		return strings.Contains(strings.ToLower(k.Name), kw) ||
			strings.Contains(strings.ToLower(k.Address), kw) ||
			strings.Contains(strings.ToLower(desc), kw)
	}), nil
}

func (f *fakeRepo) filter(keep func(domain.Kos) bool) []domain.Kos {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Kos
	for _, k := range f.rows {
		if keep(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepo) get(id string) domain.Kos {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

type fakeOwners struct {
	err   error
	calls []string
}

func (o *fakeOwners) ValidateOwner(ctx context.Context, ownerID string) error {
	o.calls = append(o.calls, ownerID)
	return o.err
}

// tickingClock advances by step on every call.
func tickingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}

func ptr[T any](v T) *T { return &v }
