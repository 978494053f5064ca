package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15.0, cfg.Clustering.Threshold)
	assert.Equal(t, 200, cfg.Clustering.CanonicalWidth)
	assert.Equal(t, 200, cfg.Clustering.CanonicalHeight)
	assert.Equal(t, "ciede2000", cfg.Clustering.Metric)
	assert.True(t, cfg.Output.AutoOutputFolder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Clustering.Threshold = 0 }},
		{"negative threshold", func(c *Config) { c.Clustering.Threshold = -1 }},
		{"zero width", func(c *Config) { c.Clustering.CanonicalWidth = 0 }},
		{"unknown metric", func(c *Config) { c.Clustering.Metric = "rgb" }},
		{"nearest filter", func(c *Config) { c.Clustering.Filter = "nearest" }},
		{"no formats", func(c *Config) { c.Input.SupportedFormats = nil }},
		{"zero min size", func(c *Config) { c.Input.MinImageSize = 0 }},
		{"zero thumbnail", func(c *Config) { c.Output.ThumbnailSize = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "gif" }},
		{"bad quality", func(c *Config) { c.Output.Quality = 101 }},
		{"zero concurrency", func(c *Config) { c.Output.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Clustering.Threshold = 9.5
	cfg.Clustering.Metric = "cie76"
	cfg.Output.Dir = "/tmp/out"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clustering:\n  threshold: 7\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Clustering.Threshold)
	assert.Equal(t, 200, cfg.Clustering.CanonicalWidth)
	assert.Equal(t, "jpg", cfg.Output.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clustering: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PHOTOASSISTANT_THRESHOLD", "12.5")
	t.Setenv("PHOTOASSISTANT_CANONICAL_SIZE", "64")
	t.Setenv("PHOTOASSISTANT_METRIC", "cie94")
	t.Setenv("PHOTOASSISTANT_AUTO_OUTPUT_FOLDER", "false")
	t.Setenv("PHOTOASSISTANT_EXPORT_CONCURRENCY", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 12.5, cfg.Clustering.Threshold)
	assert.Equal(t, 64, cfg.Clustering.CanonicalWidth)
	assert.Equal(t, 64, cfg.Clustering.CanonicalHeight)
	assert.Equal(t, "cie94", cfg.Clustering.Metric)
	assert.False(t, cfg.Output.AutoOutputFolder)
	assert.Equal(t, 4, cfg.Output.Concurrency)
}

func TestApplyEnvIgnoresInvalidThreshold(t *testing.T) {
	t.Setenv("PHOTOASSISTANT_THRESHOLD", "-3")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, 15.0, cfg.Clustering.Threshold)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(GetConfigPath()))
}
