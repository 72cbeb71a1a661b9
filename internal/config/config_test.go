package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSalt(t *testing.T) {
	t.Setenv("DATA_ID_SALT", "")
	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSalt)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_ID_SALT", "pepper")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "pepper", cfg.DataIDSalt)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.False(t, cfg.Debug)
	require.Equal(t, "./sample_data", cfg.SampleDataDir)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, int64(512<<20), cfg.MaxBodyBytes)
	require.Equal(t, 5*time.Second, cfg.PublishTimeout)
	require.Empty(t, cfg.KafkaBrokers)
	require.False(t, cfg.KafkaEnabled())
	require.False(t, cfg.AuthEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATA_ID_SALT", "pepper")
	t.Setenv("API_V1_PREFIX", "/api/v2")
	t.Setenv("DEBUG", "true")
	t.Setenv("SAMPLE_DATA_DIR", "/tmp/samples")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("PUBLISH_TIMEOUT", "750ms")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/api/v2", cfg.APIPrefix)
	require.True(t, cfg.Debug)
	require.Equal(t, "/tmp/samples", cfg.SampleDataDir)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.KafkaEnabled())
	require.Equal(t, 750*time.Millisecond, cfg.PublishTimeout)
	require.True(t, cfg.AuthEnabled())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_ID_SALT=from-file\nDEBUG=true\n"), 0o600))

	t.Setenv("DATA_ID_SALT", "")
	t.Setenv("DEBUG", "")
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.DataIDSalt)
	require.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	base := Config{DataIDSalt: "pepper", APIPrefix: "/api/v1", MaxBodyBytes: 1}
	require.NoError(t, base.Validate())

	noSlash := base
	noSlash.APIPrefix = "api"
	require.Error(t, noSlash.Validate())

	noBody := base
	noBody.MaxBodyBytes = 0
	require.Error(t, noBody.Validate())

	debug := base
	debug.Debug = true
	require.Error(t, debug.Validate())
}
