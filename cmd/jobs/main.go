package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"exchange-rates-service/internal/bootstrap"
	"exchange-rates-service/internal/config"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

// jobs runs one batch operation synchronously and prints its result record as
// JSON. Exit code 1 signals a structural failure.
func main() {
	var (
		job  = flag.String("job", "", "one of: backfill, sync, cleanup, health")
		from = flag.String("from", "", "backfill start date (YYYY-MM-DD)")
		to   = flag.String("to", "", "backfill end date (YYYY-MM-DD)")
		days = flag.Int("days", 0, "cleanup: delete rates older than this many days")
	)
	flag.Parse()

	log := logx.L()
	cfg := config.Load()
	ctx := context.Background()

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	registry := bootstrap.BuildRegistry(repos, cfg)
	engine := bootstrap.BuildEngine(repos, registry, cfg)
	jobs := bootstrap.BuildJobs(repos, engine, registry)

	var (
		result  any
		success bool
	)
	switch *job {
	case "backfill":
		res := jobs.LoadHistoricalData(ctx, *from, *to)
		result, success = res, res.Success
	case "sync":
		res := jobs.SyncToday(ctx)
		result, success = res, res.Success
	case "cleanup":
		res := jobs.CleanupOlderThan(ctx, *days)
		result, success = res, res.Success
	case "health":
		res := jobs.HealthCheckProviders(ctx)
		result, success = res, res.Success
	default:
		log.Fatal("unknown job", zap.String("job", *job))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	if !success {
		os.Exit(1)
	}
}
