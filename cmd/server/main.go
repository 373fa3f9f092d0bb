// Package main is the entry point for the creditdesk API server.
//
// The server aggregates fixed-income market data (Treasury rates, credit
// spreads, bond market indicators), financial news and AI-generated credit
// memos behind a JSON API, tracks a bond portfolio with transaction history
// and risk metrics, and runs background jobs for cache hygiene, market data
// warming, portfolio snapshots and offsite backups.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/clients/fred"
	"github.com/creditdesk/creditdesk/internal/clients/newsapi"
	"github.com/creditdesk/creditdesk/internal/clients/yahoo"
	"github.com/creditdesk/creditdesk/internal/config"
	"github.com/creditdesk/creditdesk/internal/database"
	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/markets"
	marketshandlers "github.com/creditdesk/creditdesk/internal/modules/markets/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/memo"
	memohandlers "github.com/creditdesk/creditdesk/internal/modules/memo/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/news"
	newshandlers "github.com/creditdesk/creditdesk/internal/modules/news/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/portfolio"
	portfoliohandlers "github.com/creditdesk/creditdesk/internal/modules/portfolio/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/quant"
	quanthandlers "github.com/creditdesk/creditdesk/internal/modules/quant/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/rates"
	rateshandlers "github.com/creditdesk/creditdesk/internal/modules/rates/handlers"
	"github.com/creditdesk/creditdesk/internal/modules/spreads"
	spreadshandlers "github.com/creditdesk/creditdesk/internal/modules/spreads/handlers"
	"github.com/creditdesk/creditdesk/internal/reliability"
	"github.com/creditdesk/creditdesk/internal/scheduler"
	"github.com/creditdesk/creditdesk/internal/server"
	"github.com/creditdesk/creditdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting creditdesk")

	// Databases. The cache database holds ephemeral upstream payloads and
	// can be deleted at any time; the portfolio database is durable.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	// Upstream clients share one cache repository.
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	fredClient := fred.NewClient(cfg.FredAPIKey, cacheRepo, log)
	newsClient := newsapi.NewClient(cfg.NewsAPIKey, cacheRepo, log)
	yahooClient := yahoo.NewClient(cacheRepo, log)

	// Module services.
	ratesService := rates.NewService(fredClient, log)
	spreadsService := spreads.NewService(fredClient, log)
	marketsService := markets.NewService(yahooClient, log)
	newsService := news.NewService(newsClient, log)
	memoService := memo.NewService(memo.NewGeminiGenerator(cfg.GoogleAPIKey), cfg.GoogleAPIKey, cacheRepo, log)

	transactionRepo := portfolio.NewTransactionRepository(portfolioDB.Conn(), log)
	snapshotRepo := portfolio.NewSnapshotRepository(portfolioDB.Conn(), log)
	portfolioService := portfolio.NewService(transactionRepo, snapshotRepo, yahooClient, log)

	quantService := quant.NewService(yahooClient, log)

	// System endpoints report how fresh each upstream feed is.
	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir)
	systemHandlers.AddFreshnessProbe("treasury", func(ctx context.Context) (time.Time, error) {
		return latestObservation(ratesService.Treasury10Y(ctx, monthsBack(3)))
	})
	systemHandlers.AddFreshnessProbe("credit_spreads", func(ctx context.Context) (time.Time, error) {
		table, err := spreadsService.History(ctx, monthsBack(3))
		if err != nil {
			return time.Time{}, err
		}
		var newest time.Time
		for _, series := range table.Data {
			if p, ok := series.Latest(); ok && p.Time.After(newest) {
				newest = p.Time
			}
		}
		return newest, nil
	})
	systemHandlers.AddFreshnessProbe("bond_markets", func(ctx context.Context) (time.Time, error) {
		return latestObservation(marketsService.Move(ctx, "1mo"))
	})
	systemHandlers.AddFreshnessProbe("news", func(ctx context.Context) (time.Time, error) {
		items, err := newsService.Headlines(ctx, 5)
		if err != nil {
			return time.Time{}, err
		}
		ts, ok := news.LastPublished(items)
		if !ok {
			return time.Time{}, &domain.UpstreamError{Source: "newsapi", Err: errors.New("no publication timestamps")}
		}
		return ts, nil
	})

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		System:  systemHandlers,
		Modules: []server.Module{
			rateshandlers.NewHandler(ratesService, log),
			spreadshandlers.NewHandler(spreadsService, log),
			marketshandlers.NewHandler(marketsService, log),
			newshandlers.NewHandler(newsService, log),
			memohandlers.NewHandler(memoService, log),
			portfoliohandlers.NewHandler(portfolioService, log),
			quanthandlers.NewHandler(quantService, log),
		},
	})

	// Background jobs.
	sched := scheduler.New(log)
	registerJob(sched, log, "0 4 * * *", clientdata.NewCleanupJob(cacheRepo, log))
	registerJob(sched, log, "30 22 * * 1-5", portfolio.NewSnapshotJob(portfolioService, log))
	registerJob(sched, log, "15 * * * *", markets.NewWarmJob(marketsService, log))

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Store(context.Background(), cfg.Backup)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup store")
		}
		backupService := reliability.NewBackupService(store, cfg.DataDir, cfg.Backup.Prefix, log)
		registerJob(sched, log, "30 2 * * *", reliability.NewBackupJob(backupService, log))
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backups enabled")
	} else {
		log.Info().Msg("Backups disabled, BACKUP_S3_BUCKET not set")
	}

	sched.Start()
	defer sched.Stop()

	// Run the server until a shutdown signal arrives.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Shutdown complete")
}

func registerJob(sched *scheduler.Scheduler, log zerolog.Logger, schedule string, job scheduler.Job) {
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}

func monthsBack(n int) time.Time {
	return time.Now().AddDate(0, -n, 0)
}

func latestObservation(series domain.Series, err error) (time.Time, error) {
	if err != nil {
		return time.Time{}, err
	}
	p, ok := series.Latest()
	if !ok {
		return time.Time{}, &domain.UpstreamError{Source: "series", Err: errors.New("no observations")}
	}
	return p.Time, nil
}
