// cmd/worker/main.go
//
// Notification consumer: subscribes to the broker channel the API publishes
// on and renders one line per recipient. Real delivery (email, push) would
// hang off processEnvelope.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eventradar/internal/notifications"
	"eventradar/pkg/config"
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

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	sub := client.Subscribe(ctx, cfg.Notifications.Channel)
	defer sub.Close()

	logger.Info("notification worker waiting for messages",
		zap.String("channel", cfg.Notifications.Channel),
	)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := processEnvelope(logger, msg.Payload); err != nil {
				logger.Error("failed to process notification", zap.Error(err))
			}
		}
	}
}

func processEnvelope(logger *zap.Logger, payload string) error {
	var envelope notifications.Envelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	logger.Info("processing notification",
		zap.String("event_id", envelope.EventID),
		zap.String("title", envelope.Title),
		zap.Int("recipients", len(envelope.Recipients)),
		zap.String("scheduled_for", envelope.ScheduledFor),
	)

	for _, recipient := range envelope.Recipients {
		logger.Info("sending notification",
			zap.String("user_id", recipient.UserID),
			zap.String("message", renderMessage(envelope, recipient.PreferredLanguage)),
		)
	}
	return nil
}

func renderMessage(envelope notifications.Envelope, lang string) string {
	date := envelope.Date
	if t, err := time.Parse(time.RFC3339, envelope.Date); err == nil {
		date = t.Format("Jan 2, 2006")
	}
	if lang == "fr" {
		return fmt.Sprintf("Événement à venir: %s le %s", envelope.Title, date)
	}
	return fmt.Sprintf("Upcoming event: %s on %s", envelope.Title, date)
}
