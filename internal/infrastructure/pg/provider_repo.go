package pg

import (
	"context"
	"errors"
	"fmt"

	"exchange-rates-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ProviderRepo struct{ db *DB }

func NewProviderRepo(db *DB) *ProviderRepo { return &ProviderRepo{db: db} }

const providerColumns = `id::text, name, priority, is_active, created_at, updated_at`

func (r *ProviderRepo) scanOne(row pgx.Row) (domain.ProviderConfig, error) {
	var out domain.ProviderConfig
	err := row.Scan(&out.ID, &out.Name, &out.Priority, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	return out, nil
}

func (r *ProviderRepo) list(ctx context.Context, q string, args ...any) ([]domain.ProviderConfig, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ProviderConfig
	for rows.Next() {
		var p domain.ProviderConfig
		if err := rows.Scan(&p.ID, &p.Name, &p.Priority, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProviderRepo) ListAll(ctx context.Context) ([]domain.ProviderConfig, error) {
	return r.list(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY priority`)
}

func (r *ProviderRepo) ListActiveOrdered(ctx context.Context) ([]domain.ProviderConfig, error) {
	return r.list(ctx, `SELECT `+providerColumns+` FROM providers WHERE is_active ORDER BY priority`)
}

func (r *ProviderRepo) GetByName(ctx context.Context, name domain.ProviderName) (domain.ProviderConfig, error) {
	q := `SELECT ` + providerColumns + ` FROM providers WHERE name=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, name))
}

func (r *ProviderRepo) GetByPriority(ctx context.Context, priority int) (domain.ProviderConfig, error) {
	q := `SELECT ` + providerColumns + ` FROM providers WHERE priority=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, priority))
}

func (r *ProviderRepo) Create(ctx context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	const q = `
        INSERT INTO providers (name, priority, is_active)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, p.Name, p.Priority, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		// Backstop for races that slip past the application-level check.
		return domain.ProviderConfig{}, fmt.Errorf("%w: provider name or priority already taken", domain.ErrValidation)
	}
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	return p, nil
}

func (r *ProviderRepo) Update(ctx context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	const q = `
        UPDATE providers
        SET priority=$2, is_active=$3, updated_at=now()
        WHERE name=$1
        RETURNING id::text, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, p.Name, p.Priority, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ProviderConfig{}, fmt.Errorf("%w: provider priority already taken", domain.ErrValidation)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	return p, nil
}

func (r *ProviderRepo) Delete(ctx context.Context, name domain.ProviderName) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM providers WHERE name=$1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
