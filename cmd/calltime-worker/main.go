package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/queue"
)

// calltime-worker periodically reloads the live queue and recomputes the
// estimated call time for every waiting patient.
func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "calltime-worker").Logger()
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("service", "calltime-worker").Logger()
	}

	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("calltime-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	queueStore := queue.NewPgStore(pgPool)
	svc := queue.NewService(queueStore, queueStore, logger)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.AvgConsultMin, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping calltime worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.AvgConsultMin, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *queue.Service, avgConsultMin int, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.Refresh(runCtx); err != nil {
		logger.Error().Err(err).Msg("queue refresh error")
		return
	}
	if err := svc.EstimateCallTimes(runCtx, avgConsultMin); err != nil {
		logger.Error().Err(err).Msg("call time estimation error")
		return
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("call time run complete")
}
