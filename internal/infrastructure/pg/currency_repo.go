package pg

import (
	"context"
	"errors"
	"fmt"

	"exchange-rates-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type CurrencyRepo struct{ db *DB }

func NewCurrencyRepo(db *DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

const currencyColumns = `id::text, code, name, symbol, created_at, updated_at`

func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (domain.Currency, error) {
	q := `SELECT ` + currencyColumns + ` FROM currencies WHERE code=$1`
	var out domain.Currency
	err := r.db.Pool.QueryRow(ctx, q, code).
		Scan(&out.ID, &out.Code, &out.Name, &out.Symbol, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Currency{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Currency{}, err
	}
	return out, nil
}

func (r *CurrencyRepo) ListAll(ctx context.Context) ([]domain.Currency, error) {
	q := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY code`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CurrencyRepo) Create(ctx context.Context, c domain.Currency) (domain.Currency, error) {
	const q = `
        INSERT INTO currencies (code, name, symbol)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, c.Code, c.Name, c.Symbol).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.Currency{}, fmt.Errorf("%w: currency %s already exists", domain.ErrValidation, c.Code)
	}
	if err != nil {
		return domain.Currency{}, err
	}
	return c, nil
}

func (r *CurrencyRepo) Update(ctx context.Context, c domain.Currency) (domain.Currency, error) {
	const q = `
        UPDATE currencies
        SET name=$2, symbol=$3, updated_at=now()
        WHERE code=$1
        RETURNING id::text, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, c.Code, c.Name, c.Symbol).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Currency{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Currency{}, err
	}
	return c, nil
}

func (r *CurrencyRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM currencies WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
