package worker

import (
	"context"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"go.uber.org/zap"
)

var _ application.Worker = (*BackfillWorker)(nil)

// BackfillWorker polls the job table and runs claimed backfills. Multiple
// instances can run concurrently; the claim query hands each job to exactly
// one of them.
type BackfillWorker struct {
	Jobs   application.BackfillJobRepo
	Engine *application.BackfillEngine

	PollEvery  time.Duration
	BatchLimit int
	Log        *zap.Logger
}

func (w *BackfillWorker) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.PollEvery <= 0 {
		w.PollEvery = time.Second
	}
	if w.BatchLimit <= 0 {
		w.BatchLimit = 1
	}

	t := time.NewTicker(w.PollEvery)
	defer t.Stop()

	log.Info("backfill_worker_started", zap.Duration("poll_every", w.PollEvery))
	for {
		select {
		case <-ctx.Done():
			log.Info("backfill_worker_stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *BackfillWorker) tick(ctx context.Context, log *zap.Logger) {
	jobs, err := w.Jobs.ClaimQueued(ctx, w.BatchLimit)
	if err != nil {
		log.Warn("claim_failed", zap.Error(err))
		return
	}
	for _, j := range jobs {
		w.processOne(ctx, log, j)
	}
}

func (w *BackfillWorker) processOne(ctx context.Context, log *zap.Logger, job domain.BackfillJob) {
	res := w.Engine.Run(ctx, job.DateFrom, job.DateTo)
	if !res.Success {
		_ = w.Jobs.Fail(ctx, job.ID, res.Message)
		log.Warn("backfill_failed", zap.String("id", job.ID), zap.String("cause", res.Message))
		return
	}
	_ = w.Jobs.Complete(ctx, job.ID, res.RatesLoaded, res.Errors)
	log.Info("backfill_done",
		zap.String("id", job.ID),
		zap.Int("rates_loaded", res.RatesLoaded),
		zap.Int("pair_errors", len(res.Errors)))
}
