package pg

import (
	"context"
	"errors"
	"time"

	"exchange-rates-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type RateRepo struct{ db *DB }

func NewRateRepo(db *DB) *RateRepo { return &RateRepo{db: db} }

func (r *RateRepo) Get(ctx context.Context, source, target string, date time.Time) (domain.ExchangeRate, error) {
	const q = `
        SELECT id::text, source_code, target_code, valuation_date, rate_value::text, created_at
        FROM exchange_rates
        WHERE source_code=$1 AND target_code=$2 AND valuation_date=$3`
	var (
		out domain.ExchangeRate
		raw string
	)
	err := r.db.Pool.QueryRow(ctx, q, source, target, date).
		Scan(&out.ID, &out.SourceCode, &out.TargetCode, &out.ValuationDate, &raw, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	out.RateValue, err = decimal.NewFromString(raw)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	return out, nil
}

// Insert is race-safe: a concurrent writer of the same logical key wins
// silently, matching the idempotent-write contract.
func (r *RateRepo) Insert(ctx context.Context, rate domain.ExchangeRate) error {
	const q = `
        INSERT INTO exchange_rates (source_code, target_code, valuation_date, rate_value)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (source_code, target_code, valuation_date) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, rate.SourceCode, rate.TargetCode, rate.ValuationDate, rate.RateValue.String())
	return err
}

// BulkInsert writes all rates in one round trip via unnest; duplicate keys
// are ignored. Returns the number of rows actually inserted.
func (r *RateRepo) BulkInsert(ctx context.Context, rates []domain.ExchangeRate) (int64, error) {
	if len(rates) == 0 {
		return 0, nil
	}
	sources := make([]string, len(rates))
	targets := make([]string, len(rates))
	dates := make([]time.Time, len(rates))
	values := make([]string, len(rates))
	for i, rt := range rates {
		sources[i] = rt.SourceCode
		targets[i] = rt.TargetCode
		dates[i] = rt.ValuationDate
		values[i] = rt.RateValue.String()
	}
	const q = `
        INSERT INTO exchange_rates (source_code, target_code, valuation_date, rate_value)
        SELECT * FROM unnest($1::text[], $2::text[], $3::date[], $4::numeric[])
        ON CONFLICT (source_code, target_code, valuation_date) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, sources, targets, dates, values)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *RateRepo) ListBySource(ctx context.Context, source string, dateFrom, dateTo time.Time) ([]domain.ExchangeRate, error) {
	const q = `
        SELECT id::text, source_code, target_code, valuation_date, rate_value::text, created_at
        FROM exchange_rates
        WHERE source_code=$1 AND valuation_date BETWEEN $2 AND $3
        ORDER BY valuation_date, target_code`
	rows, err := r.db.Pool.Query(ctx, q, source, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ExchangeRate
	for rows.Next() {
		var (
			rt  domain.ExchangeRate
			raw string
		)
		if err := rows.Scan(&rt.ID, &rt.SourceCode, &rt.TargetCode, &rt.ValuationDate, &raw, &rt.CreatedAt); err != nil {
			return nil, err
		}
		if rt.RateValue, err = decimal.NewFromString(raw); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *RateRepo) ExistingForDate(ctx context.Context, date time.Time) (map[string]bool, error) {
	const q = `SELECT source_code, target_code FROM exchange_rates WHERE valuation_date=$1`
	rows, err := r.db.Pool.Query(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, err
		}
		out[domain.PairKey(source, target)] = true
	}
	return out, rows.Err()
}

func (r *RateRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM exchange_rates WHERE valuation_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
