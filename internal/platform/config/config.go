package config

import (
	"os"
	"strconv"
	"time"

	platformstrings "arrears/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// AdminTokenHash is the bcrypt hash of the X-Admin-Token value.
	AdminTokenHash string
	// DefaultBusinessDate is used until a business date has been set explicitly.
	// Empty means "today" at startup.
	DefaultBusinessDate string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig

	// RateLimit throttles authenticated API callers.
	RateLimit RateLimitConfig
}

// DatabaseConfig configures the PostgreSQL pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the business date store. An empty URL keeps it in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures publication of delinquency action events.
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// OutboxConfig tunes the outbox relay.
type OutboxConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	FailureThreshold int
	Cooldown         time.Duration
}

// RateLimitConfig bounds requests per caller within a sliding window.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// IsDevelopment reports whether the service runs with developer defaults.
func (s Server) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:                getEnv("ARREARS_ADDR", ":8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		JWTSigningKey:       jwtSigningKey,
		JWTIssuer:           getEnv("JWT_ISSUER", "arrears"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "arrears-api"),
		AdminTokenHash:      os.Getenv("ADMIN_TOKEN_HASH"),
		DefaultBusinessDate: os.Getenv("DEFAULT_BUSINESS_DATE"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:           os.Getenv("KAFKA_ENABLED") == "true",
			Brokers:           platformstrings.SplitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:             getEnv("KAFKA_TOPIC", "delinquency.actions"),
			Partitions:        int32(getInt("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(getInt("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Outbox: OutboxConfig{
			PollInterval:     getDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:        getInt("OUTBOX_BATCH_SIZE", 100),
			FailureThreshold: getInt("OUTBOX_FAILURE_THRESHOLD", 5),
			Cooldown:         getDuration("OUTBOX_COOLDOWN", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			Requests: getInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
