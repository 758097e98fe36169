package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	complainthandler "complaintdesk/internal/complaint/handler"
	complaintmetrics "complaintdesk/internal/complaint/metrics"
	"complaintdesk/internal/complaint/service"
	"complaintdesk/internal/complaint/store"
	"complaintdesk/internal/geo"
	"complaintdesk/internal/migrate"
	"complaintdesk/internal/platform/config"
	"complaintdesk/internal/platform/httpserver"
	"complaintdesk/internal/platform/logger"
	platformmetrics "complaintdesk/internal/platform/metrics"
	"complaintdesk/internal/platform/middleware"
	platformredis "complaintdesk/internal/platform/redis"
)

const requestTimeout = 30 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the complaint service.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(startupCtx); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}
	if err := migrate.Up(startupCtx, db); err != nil {
		log.Error("apply migrations", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var resolver geo.Resolver = geo.NewClient(cfg.Geolocation)
	if redisClient != nil && cfg.Geolocation.CacheTTL > 0 {
		resolver = geo.NewCachedResolver(resolver, redisClient.Client, cfg.Geolocation.CacheTTL, log)
	}

	svc := service.New(store.NewPostgres(db), resolver,
		service.WithLogger(log),
		service.WithMetrics(complaintmetrics.New()),
		service.WithTx(newPostgresStoreTx(db)),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestMetadata)
	router.Use(middleware.Logger(log))
	router.Use(platformmetrics.NewHTTP().Middleware)
	router.Use(middleware.Timeout(requestTimeout))

	complainthandler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router, cfg.HTTP)
	log.Info("starting complaintdesk", "addr", cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
