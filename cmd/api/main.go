package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"kos_service/internal/adapters/authsvc"
	server "kos_service/internal/adapters/http_server"
	"kos_service/internal/adapters/observability"
	"kos_service/internal/app"
	"kos_service/internal/domain"
	"kos_service/internal/shared"
	mysqlrepo "kos_service/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
	log.Info().Msg("API stopped")
}

// run owns every resource so deferred closes happen before main exits.
func run(cfg shared.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.Ping: %w", err)
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	auth, err := authsvc.New(authsvc.Options{
		VerifyURL:    cfg.AuthVerifyURL,
		OwnerBaseURL: cfg.OwnerServiceURL,
		Timeout:      cfg.AuthTimeout,
		RPS:          cfg.AuthRPS,
	})
	if err != nil {
		return fmt.Errorf("auth client: %w", err)
	}
	var owners domain.OwnerValidator
	if auth.OwnerValidationEnabled() {
		owners = auth
	}
	cmd := app.NewCommandService(repo, owners)
	q := app.NewQueryService(repo)

	// http
	srv := server.New()
	srv.Use(server.Authenticate(auth, cfg.InternalTokenSecret, cfg.AuthTimeout))
	reg := observability.InitRegistry()
	if cfg.MetricsAddr == "" {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(&server.Handlers{Cmd: cmd, Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return observability.Serve(gctx, cfg.MetricsAddr, reg) })
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down API")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
