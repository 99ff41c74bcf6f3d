package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/bootstrap"
	"exchange-rates-service/internal/config"
	infraconfig "exchange-rates-service/internal/infrastructure/config"
	httpserver "exchange-rates-service/internal/infrastructure/http"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx := context.Background()
	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	services, closeRedis, err := bootstrap.BuildRedis(cfg)
	if err != nil {
		logger.Fatal("bootstrap redis", zap.Error(err))
	}
	defer closeRedis()

	registry := bootstrap.BuildRegistry(repos, cfg)
	resolver := bootstrap.BuildResolver(repos, registry)
	currencies := application.NewCurrencyService(repos.Currencies)
	providers := application.NewProviderService(repos.Providers)

	srv := httpserver.NewServer(resolver, repos.Rates, currencies, providers, repos.Jobs, services.Idem).
		WithPing(repos.Ping)
	mux := httpserver.NewRouter(srv)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
