package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the broker cannot accept a publish, either
// because the connection is down or because the circuit breaker is open.
// Callers are expected to degrade, not to retry inline.
var ErrUnavailable = errors.New("message broker unavailable")

// Publisher is the process-wide hand-off capability for notification
// payloads. It is opened once at startup and shared by all dispatch calls.
type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
	Healthy(ctx context.Context) bool
	Close() error
}

// RedisPublisher publishes to a Redis pub/sub channel behind a circuit
// breaker. A tripped breaker short-circuits publishes until the broker
// recovers, so a dead broker costs one failed round-trip, not one per call.
type RedisPublisher struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

// NewRedisPublisher connects to addr. The connection is not verified here;
// Healthy and the breaker handle a broker that is down at startup.
func NewRedisPublisher(addr, password string, db int, logger *zap.Logger) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-publish",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("broker circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RedisPublisher{client: client, breaker: breaker}
}

// Publish sends payload on channel. Any failure is reported as
// ErrUnavailable so callers need only one degrade branch.
func (p *RedisPublisher) Publish(ctx context.Context, channel, payload string) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.client.Publish(ctx, channel, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Healthy pings the broker unless the breaker is already open.
func (p *RedisPublisher) Healthy(ctx context.Context) bool {
	if p.breaker.State() == gobreaker.StateOpen {
		return false
	}
	return p.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
