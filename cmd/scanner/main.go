// cmd/scanner/main.go
//
// One-shot upcoming-event scan for cron use: selects active events in the
// window and queues a notification per event, then exits.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"eventradar/internal/events"
	"eventradar/internal/notifications"
	"eventradar/internal/users"
	"eventradar/pkg/broker"
	"eventradar/pkg/config"
	"eventradar/pkg/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	daysAhead := flag.Int("days-ahead", 1, "scan window in days from now")
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

	m := metrics.New(prometheus.NewRegistry())
	matcher := notifications.NewMatcher(userStore, cfg.Notifications.CatchmentRadiusKm)
	dispatcher := notifications.NewDispatcher(eventStore, userStore, matcher, publisher, cfg.Notifications.Channel, logger, m)
	scanner := notifications.NewScanner(eventStore, dispatcher, cfg.Notifications.ScanWorkers, logger, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := scanner.ScanAndQueue(ctx, *daysAhead)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	logger.Info("scan finished", zap.Int("queued", result.QueuedCount))
}
