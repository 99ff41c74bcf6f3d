package bootstrap

import (
	"context"
	"fmt"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/config"
	"exchange-rates-service/internal/infrastructure/logx"
	"exchange-rates-service/internal/infrastructure/pg"
	"exchange-rates-service/internal/infrastructure/provider"
	redisstore "exchange-rates-service/internal/infrastructure/redis"
	"exchange-rates-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
)

type Repos struct {
	Currencies application.CurrencyRepo
	Rates      application.RateRepo
	Providers  application.ProviderConfigRepo
	Jobs       application.BackfillJobRepo

	// Ping backs the readiness probe.
	Ping func(context.Context) error
}

type Services struct {
	Idem application.IdempotencyStore
}

// BuildRepos connects to Postgres, runs migrations, and wires repositories.
func BuildRepos(ctx context.Context, cfg config.Config) (Repos, func(), error) {
	log := logx.L()
	if cfg.DatabaseURL == "" {
		return Repos{}, func() {}, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return Repos{}, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return Repos{}, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return Repos{
		Currencies: pg.NewCurrencyRepo(db),
		Rates:      pg.NewRateRepo(db),
		Providers:  pg.NewProviderRepo(db),
		Jobs:       pg.NewBackfillJobRepo(db),
		Ping:       db.Ping,
	}, cleanup, nil
}

// BuildRedis builds the idempotency store if enabled (falls back to Noop).
func BuildRedis(cfg config.Config) (Services, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return Services{Idem: application.NoopIdempotency{}}, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisstore.New(rdb, cfg.RedisTTL)
	cleanup := func() { _ = rdb.Close() }
	return Services{Idem: store}, cleanup, nil
}

// BuildRegistry wires the adapter table against persisted provider config.
func BuildRegistry(repos Repos, cfg config.Config) *provider.Registry {
	return provider.NewRegistry(repos.Providers, cfg)
}

func BuildEngine(repos Repos, registry *provider.Registry, cfg config.Config) *application.BackfillEngine {
	return application.NewBackfillEngine(repos.Currencies, repos.Rates, registry, cfg.BackfillConcurrency)
}

func BuildResolver(repos Repos, registry *provider.Registry) *application.RateResolver {
	return application.NewRateResolver(repos.Currencies, repos.Rates, registry)
}

func BuildWorker(repos Repos, engine *application.BackfillEngine, cfg config.Config) application.Worker {
	return &worker.BackfillWorker{
		Jobs:       repos.Jobs,
		Engine:     engine,
		PollEvery:  cfg.WorkerPoll,
		BatchLimit: cfg.WorkerBatchSize,
		Log:        logx.L(),
	}
}

func BuildJobs(repos Repos, engine *application.BackfillEngine, registry *provider.Registry) *application.BatchJobs {
	return application.NewBatchJobs(engine, repos.Rates, registry)
}
