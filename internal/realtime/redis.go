package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"rental-service/internal/models"
)

const DefaultChannel = "rental-service:events"

// RedisBridge relays thread events between service instances over a Redis
// pub/sub channel. Every instance, the publisher included, receives each
// event once and delivers it to its own websocket sessions.
type RedisBridge struct {
	client  *redis.Client
	channel string
}

// NewRedisBridge connects to url and verifies the connection.
func NewRedisBridge(ctx context.Context, url, channel string) (*RedisBridge, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{client: client, channel: channel}, nil
}

// Broadcast publishes event to all instances.
func (b *RedisBridge) Broadcast(ctx context.Context, event models.ThreadEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run delivers every event received on the channel until ctx is done.
func (b *RedisBridge) Run(ctx context.Context, deliver func(models.ThreadEvent)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeEvent(msg.Payload)
			if err != nil {
				log.Printf("redis bridge: drop malformed event: %v", err)
				continue
			}
			deliver(event)
		}
	}
}

func (b *RedisBridge) Close() error {
	return b.client.Close()
}

func decodeEvent(payload string) (models.ThreadEvent, error) {
	var event models.ThreadEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return models.ThreadEvent{}, err
	}
	if event.Type == "" {
		return models.ThreadEvent{}, fmt.Errorf("event without type")
	}
	return event, nil
}
