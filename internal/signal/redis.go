package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelEventsChanged = "protestwatch.events.changed"
	channelAlerts        = "protestwatch.alerts"
)

// RedisHub fans broadcasts out over Redis pub/sub so independent client
// processes sharing a machine observe each other's reports.
type RedisHub struct {
	client *redis.Client
}

// NewRedisHub connects to Redis and verifies the connection.
func NewRedisHub(redisURL string) (*RedisHub, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisHub{client: client}, nil
}

// NewRedisHubWithClient wraps an existing Redis client.
func NewRedisHubWithClient(client *redis.Client) *RedisHub {
	return &RedisHub{client: client}
}

func (h *RedisHub) PublishEventsChanged() {
	if err := h.client.Publish(context.Background(), channelEventsChanged, "1").Err(); err != nil {
		log.Printf("signal: publish events changed: %v", err)
	}
}

func (h *RedisHub) PublishAlert(alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("signal: marshal alert: %v", err)
		return
	}
	if err := h.client.Publish(context.Background(), channelAlerts, payload).Err(); err != nil {
		log.Printf("signal: publish alert: %v", err)
	}
}

func (h *RedisHub) SubscribeEventsChanged() (<-chan struct{}, func()) {
	pubsub := h.subscribe(channelEventsChanged)
	out := make(chan struct{}, subscriberBuffer)
	go func() {
		defer close(out)
		for range pubsub.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, func() { _ = pubsub.Close() }
}

func (h *RedisHub) SubscribeAlerts() (<-chan Alert, func()) {
	pubsub := h.subscribe(channelAlerts)
	out := make(chan Alert, alertBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var alert Alert
			if err := json.Unmarshal([]byte(msg.Payload), &alert); err != nil {
				log.Printf("signal: decode alert: %v", err)
				continue
			}
			select {
			case out <- alert:
			default:
			}
		}
	}()
	return out, func() { _ = pubsub.Close() }
}

// subscribe opens a subscription and waits for the server's confirmation
// so a broadcast issued right after SubscribeX cannot slip past it.
func (h *RedisHub) subscribe(channel string) *redis.PubSub {
	pubsub := h.client.Subscribe(context.Background(), channel)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("signal: confirm subscription %s: %v", channel, err)
	}
	return pubsub
}

// Ping checks if Redis is reachable.
func (h *RedisHub) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

func (h *RedisHub) Close() error {
	return h.client.Close()
}
