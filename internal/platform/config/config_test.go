package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pawtrail/pkg/platform/audit"
)

func lookup(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "dev", cfg.Server.Environment)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, audit.DefaultCapacity, cfg.Audit.DefaultCapacity)
	assert.Empty(t, cfg.Audit.Capacities)
	assert.Equal(t, 1024, cfg.Audit.AsyncBuffer)
	assert.Equal(t, 1.0, cfg.Audit.SampleRate)
	assert.Equal(t, 5*time.Second, cfg.Audit.ForwardTimeout)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "pawtrail.audit", cfg.Kafka.Topic)
	assert.Equal(t, "pawtrail-audit-follow", cfg.Kafka.ConsumerGroup)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{
		"PAWTRAIL_ADDR":          ":9090",
		"APP_ENV":                "prod",
		"ADMIN_API_TOKEN":        "tok",
		"AUDIT_DEFAULT_CAPACITY": "250",
		"AUDIT_CAPACITIES":       "backup=50, migration=2000",
		"AUDIT_ASYNC_BUFFER":     "0",
		"AUDIT_SAMPLE_RATE":      "0.5",
		"AUDIT_FORWARD_TIMEOUT":  "750ms",
		"KAFKA_BROKERS":          "kafka-1:9092, kafka-2:9092,",
		"DATABASE_URL":           "postgres://localhost/pawtrail",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "tok", cfg.Server.AdminAPIToken)
	assert.Equal(t, 250, cfg.Audit.DefaultCapacity)
	assert.Equal(t, map[audit.Source]int{audit.SourceBackup: 50, audit.SourceMigration: 2000}, cfg.Audit.Capacities)
	assert.Equal(t, 0, cfg.Audit.AsyncBuffer)
	assert.Equal(t, 0.5, cfg.Audit.SampleRate)
	assert.Equal(t, 750*time.Millisecond, cfg.Audit.ForwardTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://localhost/pawtrail", cfg.Postgres.URL)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"zero capacity":       {"AUDIT_DEFAULT_CAPACITY": "0"},
		"non numeric":         {"AUDIT_DEFAULT_CAPACITY": "lots"},
		"sample rate range":   {"AUDIT_SAMPLE_RATE": "1.5"},
		"unknown source":      {"AUDIT_CAPACITIES": "salon=10"},
		"negative override":   {"AUDIT_CAPACITIES": "backup=-1"},
		"missing equals":      {"AUDIT_CAPACITIES": "backup"},
		"bad shutdown window": {"SHUTDOWN_TIMEOUT": "soon"},
		"zero forward window": {"AUDIT_FORWARD_TIMEOUT": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(lookup(env))
			assert.Error(t, err)
		})
	}
}
