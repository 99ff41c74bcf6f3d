package pg

import (
	"context"
	"errors"
	"time"

	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BackfillJobRepo struct{ db *DB }

func NewBackfillJobRepo(db *DB) *BackfillJobRepo { return &BackfillJobRepo{db: db} }

func (r *BackfillJobRepo) CreateQueued(ctx context.Context, dateFrom, dateTo time.Time) (domain.BackfillJob, error) {
	job := domain.BackfillJob{
		ID:       uuid.NewString(),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Status:   domain.BackfillJobQueued,
	}
	const q = `
        INSERT INTO backfill_jobs (id, date_from, date_to, status)
        VALUES ($1, $2, $3, $4)
        RETURNING requested_at`
	err := r.db.Pool.QueryRow(ctx, q, job.ID, job.DateFrom, job.DateTo, job.Status).
		Scan(&job.RequestedAt)
	if err != nil {
		return domain.BackfillJob{}, err
	}
	logx.L().Info("backfill_job.queued",
		zap.String("job_id", job.ID),
		zap.String("date_from", dateFrom.Format(domain.DateLayout)),
		zap.String("date_to", dateTo.Format(domain.DateLayout)))
	return job, nil
}

func (r *BackfillJobRepo) GetByID(ctx context.Context, id string) (domain.BackfillJob, error) {
	const q = `
        SELECT id::text, date_from, date_to, status, rates_loaded, errors, error, requested_at, completed_at
        FROM backfill_jobs WHERE id=$1`
	var job domain.BackfillJob
	err := r.db.Pool.QueryRow(ctx, q, id).
		Scan(&job.ID, &job.DateFrom, &job.DateTo, &job.Status, &job.RatesLoaded,
			&job.Errors, &job.Error, &job.RequestedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BackfillJob{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.BackfillJob{}, err
	}
	return job, nil
}

// ClaimQueued atomically moves up to limit queued jobs to processing.
// SKIP LOCKED keeps competing workers from claiming the same job.
func (r *BackfillJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.BackfillJob, error) {
	const q = `
        WITH picked AS (
            SELECT id FROM backfill_jobs
            WHERE status='queued'
            ORDER BY requested_at
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        UPDATE backfill_jobs j
        SET status='processing'
        FROM picked
        WHERE j.id = picked.id
        RETURNING j.id::text, j.date_from, j.date_to, j.status, j.rates_loaded,
                  j.errors, j.error, j.requested_at, j.completed_at`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.BackfillJob
	for rows.Next() {
		var job domain.BackfillJob
		if err := rows.Scan(&job.ID, &job.DateFrom, &job.DateTo, &job.Status, &job.RatesLoaded,
			&job.Errors, &job.Error, &job.RequestedAt, &job.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *BackfillJobRepo) Complete(ctx context.Context, id string, ratesLoaded int, errs []string) error {
	if errs == nil {
		errs = []string{}
	}
	const q = `
        UPDATE backfill_jobs
        SET status='done', rates_loaded=$2, errors=$3, completed_at=now()
        WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, ratesLoaded, errs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BackfillJobRepo) Fail(ctx context.Context, id string, cause string) error {
	const q = `
        UPDATE backfill_jobs
        SET status='failed', error=$2, completed_at=now()
        WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, cause)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
