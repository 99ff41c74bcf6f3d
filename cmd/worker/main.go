package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"exchange-rates-service/internal/bootstrap"
	"exchange-rates-service/internal/config"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	registry := bootstrap.BuildRegistry(repos, cfg)
	engine := bootstrap.BuildEngine(repos, registry, cfg)
	w := bootstrap.BuildWorker(repos, engine, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	w.Start(ctx)
}
