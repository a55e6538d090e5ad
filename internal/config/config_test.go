package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "heuristic", cfg.ClassifierBackend)
	assert.Equal(t, "global", cfg.DedupScope)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 60*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 200, cfg.SimilarityWindow)
	assert.Equal(t, 100, cfg.SimilarityStep)
	assert.InDelta(t, 0.3, cfg.SimilarityThreshold, 1e-12)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CLASSIFIER_TIMEOUT", "5s")
	t.Setenv("DEDUP_SCOPE", "Owner")
	t.Setenv("SIMILARITY_THRESHOLD", "0.45")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, "owner", cfg.DedupScope)
	assert.InDelta(t, 0.45, cfg.SimilarityThreshold, 1e-12)
	assert.True(t, cfg.S3UseSSL)
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "9090"
chunk_size = 256
similarity_threshold = 0.5
kafka_brokers = ["a:9092", "b:9092"]
classifier_timeout = "10s"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 256, cfg.ChunkSize)
	assert.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-12)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "nested.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	assert.ErrorContains(t, err, "not supported")
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "openai without key", env: map[string]string{"CLASSIFIER_BACKEND": "openai"}, want: "OPENAI_API_KEY"},
		{name: "anthropic without key", env: map[string]string{"CLASSIFIER_BACKEND": "anthropic"}, want: "ANTHROPIC_API_KEY"},
		{name: "unknown backend", env: map[string]string{"CLASSIFIER_BACKEND": "bert"}, want: "CLASSIFIER_BACKEND"},
		{name: "bad scope", env: map[string]string{"DEDUP_SCOPE": "tenant"}, want: "DEDUP_SCOPE"},
		{name: "threshold", env: map[string]string{"SIMILARITY_THRESHOLD": "1.5"}, want: "SIMILARITY_THRESHOLD"},
		{name: "zero step", env: map[string]string{"SIMILARITY_STEP": "0"}, want: "SIMILARITY_STEP"},
		{name: "negative min", env: map[string]string{"MIN_TEXT_LENGTH": "-1"}, want: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
