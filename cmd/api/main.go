// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eventradar/internal/events"
	"eventradar/internal/middleware"
	"eventradar/internal/notifications"
	"eventradar/internal/users"
	"eventradar/pkg/broker"
	"eventradar/pkg/config"
	"eventradar/pkg/metrics"
	"eventradar/pkg/observability"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Tracing.Enable {
		shutdown, err := observability.InitTracing("eventradar-api", cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	eventStore, err := events.NewPostgresStore(db)
	if err != nil {
		log.Fatalf("Failed to init event store: %v", err)
	}
	userStore, err := users.NewPostgresStore(db)
	if err != nil {
		log.Fatalf("Failed to init user store: %v", err)
	}

	publisher := broker.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	eventSvc := events.NewService(eventStore, events.Pagination{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	}, m)
	userSvc := users.NewService(userStore)

	matcher := notifications.NewMatcher(userStore, cfg.Notifications.CatchmentRadiusKm)
	dispatcher := notifications.NewDispatcher(eventStore, userStore, matcher, publisher, cfg.Notifications.Channel, logger, m)
	scanner := notifications.NewScanner(eventStore, dispatcher, cfg.Notifications.ScanWorkers, logger, m)
	notificationSvc := notifications.NewService(dispatcher, scanner)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"OK"}`))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Mount("/events", events.NewHandler(eventSvc, cfg.Search.DefaultRadiusKm).Routes())
		r.Mount("/users", users.NewHandler(userSvc).Routes())
		r.Mount("/notifications", notifications.NewHandler(notificationSvc).Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting API server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
