package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_revenue/internal/adapters/bookingsite"
	"hotel_revenue/internal/adapters/observability"
	"hotel_revenue/internal/app"
	"hotel_revenue/internal/domain"
	"hotel_revenue/internal/shared"
	mysqlrepo "hotel_revenue/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "collector")
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("base", cfg.QuoteBase).
		Int("workers", cfg.Workers).
		Int("days", cfg.SnapshotDays).
		Msg("collector starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := bookingsite.New(cfg.QuoteBase, cfg.QuoteKey, cfg.QuoteRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize booking site client")
	}
	collector := app.NewSnapshotCollector(client, repo)

	props, err := repo.ActiveProperties(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list active properties")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var stored, failed atomic.Int64

	for _, p := range props {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("collector interrupted")
			break
		}

		wg.Add(1)
		go func(p domain.Property) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := collector.CollectProperty(ctx, p, cfg.SnapshotDays)
			if err != nil {
				failed.Add(1)
				observability.ObserveSnapshots("error", 1)
				log.Warn().Int64("property", p.ID).Err(err).Msg("collect failed")
				return
			}
			stored.Add(int64(n))
			observability.ObserveSnapshots("ok", n)
			log.Info().Int64("property", p.ID).Int("snapshots", n).Msg("collect ok")
		}(p)
	}

	wg.Wait()
	log.Info().
		Int("properties", len(props)).
		Int64("snapshots", stored.Load()).
		Int64("failed", failed.Load()).
		Msg("collection completed")
	if failed.Load() > 0 {
		stop()
		os.Exit(1)
	}
}
