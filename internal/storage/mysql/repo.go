package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kos_service/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// likePattern escapes LIKE wildcards with '!' and wraps kw for a substring match.
func likePattern(kw string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(kw)) + "%"
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Save(ctx context.Context, k *domain.Kos) (*domain.Kos, error) {
	_, err := r.db.ExecContext(ctx, upsertKosSQL,
		k.ID,
		k.OwnerUserID,
		k.Name,
		k.Address,
		valStr(k.Description),
		k.NumRooms,
		k.MonthlyRentPrice.StringFixed(2),
		k.IsListed,
		k.OccupiedRooms,
		k.CreatedAt.UTC(),
		k.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	// read back so callers see what the store holds (write-once columns included)
	return r.FindByID(ctx, k.ID)
}

func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteKosSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) AddOccupiedRooms(ctx context.Context, id string, delta int, at time.Time) (*domain.Kos, error) {
	// RowsAffected counts changed rows only, so a missing row is detected by the read-back.
	if _, err := r.db.ExecContext(ctx, addOccupiedRoomsSQL, delta, at.UTC(), id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *Repo) FindByID(ctx context.Context, id string) (*domain.Kos, error) {
	k, err := scanKos(r.db.QueryRowContext(ctx, getKosSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *Repo) FindByOwner(ctx context.Context, ownerID string) ([]domain.Kos, error) {
	return r.list(ctx, listKosByOwnerSQL, ownerID)
}

func (r *Repo) FindAll(ctx context.Context) ([]domain.Kos, error) {
	return r.list(ctx, listKosSQL)
}

func (r *Repo) Search(ctx context.Context, keyword string) ([]domain.Kos, error) {
	p := likePattern(keyword)
	return r.list(ctx, searchKosSQL, p, p, p)
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]domain.Kos, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Kos{}
	for rows.Next() {
		k, err := scanKos(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKos(s scanner) (domain.Kos, error) {
	var (
		k     domain.Kos
		desc  sql.NullString
		price string
	)
	if err := s.Scan(
		&k.ID,
		&k.OwnerUserID,
		&k.Name,
		&k.Address,
		&desc,
		&k.NumRooms,
		&price,
		&k.IsListed,
		&k.OccupiedRooms,
		&k.CreatedAt,
		&k.UpdatedAt,
	); err != nil {
		return domain.Kos{}, err
	}
	if desc.Valid {
		d := desc.String
		k.Description = &d
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Kos{}, err
	}
	k.MonthlyRentPrice = p
	k.CreatedAt = k.CreatedAt.UTC()
	k.UpdatedAt = k.UpdatedAt.UTC()
	return k, nil
}
