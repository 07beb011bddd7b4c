package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, LockDriverLocal, cfg.LockDriver)
	assert.Equal(t, 0.90, cfg.Matching.FirstNameThreshold)
	assert.Equal(t, 0.85, cfg.Matching.FullNameThreshold)
	assert.False(t, cfg.Matching.RequireAcknowledgement)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MATCH_FULL_NAME_THRESHOLD", "0.8")
	t.Setenv("MATCH_REQUIRE_ACKNOWLEDGEMENT", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, LockDriverRedis, cfg.LockDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 0.8, cfg.Matching.FullNameThreshold)
	assert.Equal(t, 0.90, cfg.Matching.FirstNameThreshold)
	assert.True(t, cfg.Matching.RequireAcknowledgement)
}

func TestLoad_MatchingFromEnvFile(t *testing.T) {
	t.Setenv("MATCH_FIRST_NAME_THRESHOLD", "")
	require.NoError(t, os.Unsetenv("MATCH_FIRST_NAME_THRESHOLD"))

	file := filepath.Join(t.TempDir(), "matching.env")
	require.NoError(t, os.WriteFile(file, []byte("MATCH_FIRST_NAME_THRESHOLD=0.95\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 0.95, cfg.Matching.FirstNameThreshold)
}

func TestLoad_InvalidMatchingValue(t *testing.T) {
	t.Setenv("MATCH_FULL_NAME_THRESHOLD", "high")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "matching config")
}

func TestLoad_EnvFile(t *testing.T) {
	// register restoration of the real environment, then clear it so the file applies
	t.Setenv("APP_NAME", "")
	t.Setenv("LOCK_DRIVER", "")
	require.NoError(t, os.Unsetenv("APP_NAME"))
	require.NoError(t, os.Unsetenv("LOCK_DRIVER"))

	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("APP_NAME=fern-from-file\nLOCK_DRIVER=none\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "fern-from-file", cfg.AppName)
	assert.Equal(t, LockDriverNone, cfg.LockDriver)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := Config{
		StoreDriver: StoreDriverMemory,
		LockDriver:  LockDriverNone,
		Matching:    Matching{FirstNameThreshold: 1.5, FullNameThreshold: 0.85},
	}
	assert.Error(t, cfg.Validate())

	cfg.Matching.FirstNameThreshold = 0.9
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Config{DatabaseHost: "db", DatabasePort: "5432", DatabaseUserName: "u", DatabasePassword: "p", DatabaseName: "fern", DatabaseSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=fern sslmode=disable", cfg.DatabaseDSN())
}
