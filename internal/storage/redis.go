package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisBlob stores each key as a plain redis string.
type RedisBlob struct {
	client *redis.Client
}

func NewRedisBlob(client *redis.Client) *RedisBlob {
	return &RedisBlob{client: client}
}

func (r *RedisBlob) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisBlob) Set(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// RedisBus uses PUBLISH/SUBSCRIBE, reaching every process connected to the
// same server. Delivery is asynchronous.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (r *RedisBus) Publish(ctx context.Context, topic string) error {
	if err := r.client.Publish(ctx, topic, "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

func (r *RedisBus) Subscribe(topic string, fn Listener) func() {
	ps := r.client.Subscribe(context.Background(), topic)
	ch := ps.Channel()
	go func() {
		for range ch {
			fn()
		}
	}()
	return func() {
		if err := ps.Close(); err != nil {
			slog.Debug("Failed to close redis subscription", "topic", topic, "err", err)
		}
	}
}
