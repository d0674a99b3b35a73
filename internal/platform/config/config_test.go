package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ARREARS_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("OUTBOX_POLL_INTERVAL", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "delinquency.actions", cfg.Kafka.Topic)
	assert.Equal(t, time.Second, cfg.Outbox.PollInterval)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 120, cfg.RateLimit.Requests)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ARREARS_ADDR", ":9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 25, cfg.Outbox.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
