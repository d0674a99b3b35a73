package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arrears/pkg/calendar"
	"arrears/pkg/platform/sentinel"
)

// CurrentKey is the Redis key holding the business date as yyyy-MM-dd.
const CurrentKey = "businessdate:current"

// Redis shares the business date between instances.
type Redis struct {
	client *redis.Client
	key    string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithKey overrides the key, e.g. to namespace per environment.
func WithKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: CurrentKey}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: get business date: %w", sentinel.ErrUnavailable, err)
	}
	date, err := calendar.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored business date %q: %w", raw, err)
	}
	return date, nil
}

func (r *Redis) Set(ctx context.Context, date time.Time) error {
	if err := r.client.Set(ctx, r.key, calendar.Format(date), 0).Err(); err != nil {
		return fmt.Errorf("%w: set business date: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
