package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	audit "pawtrail/pkg/platform/audit"
)

// Config is the process configuration read from the environment.
type Config struct {
	Server   Server
	Audit    Audit
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	AdminAPIToken   string
	ShutdownTimeout time.Duration
}

// Audit configures the per-source logs and forwarding.
type Audit struct {
	DefaultCapacity int
	Capacities      map[audit.Source]int
	AsyncBuffer     int
	SampleRate      float64
	ForwardTimeout  time.Duration
}

// PostgresConfig enables the archive sink when URL is set.
type PostgresConfig struct {
	URL string
}

// RedisConfig enables the mirror sink when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the stream sink when Brokers is not empty.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// IsProduction reports whether the service runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "prod" || s.Environment == "production"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config using getenv, which lets tests supply values
// without touching the process environment.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	defaultCapacity, err := intValue(get("AUDIT_DEFAULT_CAPACITY", strconv.Itoa(audit.DefaultCapacity)), "AUDIT_DEFAULT_CAPACITY")
	if err != nil {
		return Config{}, err
	}
	if defaultCapacity <= 0 {
		return Config{}, fmt.Errorf("AUDIT_DEFAULT_CAPACITY must be positive, got %d", defaultCapacity)
	}
	capacities, err := ParseCapacities(getenv("AUDIT_CAPACITIES"))
	if err != nil {
		return Config{}, err
	}
	asyncBuffer, err := intValue(get("AUDIT_ASYNC_BUFFER", "1024"), "AUDIT_ASYNC_BUFFER")
	if err != nil {
		return Config{}, err
	}
	sampleRate, err := strconv.ParseFloat(get("AUDIT_SAMPLE_RATE", "1"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("AUDIT_SAMPLE_RATE: %w", err)
	}
	if sampleRate < 0 || sampleRate > 1 {
		return Config{}, fmt.Errorf("AUDIT_SAMPLE_RATE must be within [0,1], got %v", sampleRate)
	}
	forwardTimeout, err := time.ParseDuration(get("AUDIT_FORWARD_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("AUDIT_FORWARD_TIMEOUT: %w", err)
	}
	if forwardTimeout <= 0 {
		return Config{}, fmt.Errorf("AUDIT_FORWARD_TIMEOUT must be positive, got %s", forwardTimeout)
	}
	shutdown, err := time.ParseDuration(get("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	var brokers []string
	for b := range strings.SplitSeq(getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return Config{
		Server: Server{
			Addr:            get("PAWTRAIL_ADDR", ":8080"),
			Environment:     get("APP_ENV", "dev"),
			AdminAPIToken:   getenv("ADMIN_API_TOKEN"),
			ShutdownTimeout: shutdown,
		},
		Audit: Audit{
			DefaultCapacity: defaultCapacity,
			Capacities:      capacities,
			AsyncBuffer:     asyncBuffer,
			SampleRate:      sampleRate,
			ForwardTimeout:  forwardTimeout,
		},
		Postgres: PostgresConfig{URL: getenv("DATABASE_URL")},
		Redis: RedisConfig{
			URL:          getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       brokers,
			Topic:         get("KAFKA_AUDIT_TOPIC", "pawtrail.audit"),
			ConsumerGroup: get("KAFKA_CONSUMER_GROUP", "pawtrail-audit-follow"),
		},
	}, nil
}

// ParseCapacities parses "source=n,source=n" overrides. Unknown sources and
// non-positive sizes are rejected.
func ParseCapacities(raw string) (map[audit.Source]int, error) {
	out := make(map[audit.Source]int)
	for pair := range strings.SplitSeq(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("AUDIT_CAPACITIES: expected source=n, got %q", pair)
		}
		source, err := audit.ParseSource(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("AUDIT_CAPACITIES: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("AUDIT_CAPACITIES: capacity for %s must be a positive integer, got %q", source, value)
		}
		out[source] = n
	}
	return out, nil
}

func intValue(raw, key string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
