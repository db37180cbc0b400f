package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"kos_service/internal/adapters/natsad"
	"kos_service/internal/adapters/observability"
	redisad "kos_service/internal/adapters/redis"
	"kos_service/internal/app"
	"kos_service/internal/shared"
	mysqlrepo "kos_service/internal/storage/mysql"
)

type runner interface {
	Run(ctx context.Context) error
}

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("consumer failed")
	}
	log.Info().Msg("consumer stopped")
}

// run owns every resource so deferred closes happen before main exits.
func run(cfg shared.Config) error {
	log.Info().
		Str("transport", cfg.EventTransport).
		Str("subject", cfg.EventSubject).
		Int("workers", cfg.EventWorkers).
		Msg("consumer starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.Ping: %w", err)
	}
	log.Info().Msg("db ping ok")

	cmd := app.NewCommandService(mysqlrepo.New(db), nil)
	consumer := app.NewEventConsumer(cmd, cfg.EventTransport, cfg.EventWorkers)
	// let in-flight events finish before the db closes
	defer consumer.Wait()

	var sub runner
	switch cfg.EventTransport {
	case "redis":
		rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		sub = redisad.NewSubscriber(rc, cfg.EventSubject, consumer)
	default:
		nc, err := natsad.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		sub = natsad.NewSubscriber(nc, cfg.EventSubject, cfg.EventQueueGroup, consumer)
	}

	reg := observability.InitRegistry()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return observability.Serve(gctx, cfg.MetricsAddr, reg) })
	g.Go(func() error { return sub.Run(gctx) })
	return g.Wait()
}
