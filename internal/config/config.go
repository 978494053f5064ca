package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/photo-assistant/pkg/processing"
	"github.com/menta2k/photo-assistant/pkg/similarity"
)

// Config holds the application configuration
type Config struct {
	Clustering ClusteringConfig `yaml:"clustering"`
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
}

// ClusteringConfig holds the similarity parameters
type ClusteringConfig struct {
	Threshold       float64 `yaml:"threshold"`
	CanonicalWidth  int     `yaml:"canonical_width"`
	CanonicalHeight int     `yaml:"canonical_height"`
	Metric          string  `yaml:"metric"`
	Filter          string  `yaml:"filter"`
}

// InputConfig controls how inputs are expanded into image files
type InputConfig struct {
	SupportedFormats []string `yaml:"supported_formats"`
	Recursive        bool     `yaml:"recursive"`
	MinImageSize     int      `yaml:"min_image_size"`
}

// OutputConfig holds configuration for exported clusters
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// AutoOutputFolder uses the folder of the first input when Dir is empty.
	AutoOutputFolder bool   `yaml:"auto_output_folder"`
	ThumbnailSize    int    `yaml:"thumbnail_size"`
	Format           string `yaml:"format"`
	Quality          int    `yaml:"quality"`
	Concurrency      int    `yaml:"concurrency"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Clustering: ClusteringConfig{
			Threshold:       similarity.DefaultThreshold,
			CanonicalWidth:  processing.DefaultCanonicalWidth,
			CanonicalHeight: processing.DefaultCanonicalHeight,
			Metric:          string(similarity.DefaultMetric),
			Filter:          "lanczos",
		},
		Input: InputConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"},
			Recursive:        false,
			MinImageSize:     1,
		},
		Output: OutputConfig{
			Dir:              "",
			AutoOutputFolder: true,
			ThumbnailSize:    processing.DefaultThumbnailSize,
			Format:           "jpg",
			Quality:          85,
			Concurrency:      4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the current value if the env var is unset, empty, or invalid.
func envFloat(key string, current float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return current
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return current
}

func envInt(key string, current int) int {
	s := os.Getenv(key)
	if s == "" {
		return current
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return current
}

func envBool(key string, current bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return current
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return current
}

func envString(key string, current string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return current
}

// ApplyEnv overrides values from PHOTOASSISTANT_* environment variables
func (c *Config) ApplyEnv() {
	c.Clustering.Threshold = envFloat("PHOTOASSISTANT_THRESHOLD", c.Clustering.Threshold)
	if size := envInt("PHOTOASSISTANT_CANONICAL_SIZE", 0); size > 0 {
		c.Clustering.CanonicalWidth = size
		c.Clustering.CanonicalHeight = size
	}
	c.Clustering.Metric = envString("PHOTOASSISTANT_METRIC", c.Clustering.Metric)
	c.Clustering.Filter = envString("PHOTOASSISTANT_FILTER", c.Clustering.Filter)
	c.Input.Recursive = envBool("PHOTOASSISTANT_RECURSIVE", c.Input.Recursive)
	c.Output.Dir = envString("PHOTOASSISTANT_OUTPUT_DIR", c.Output.Dir)
	c.Output.AutoOutputFolder = envBool("PHOTOASSISTANT_AUTO_OUTPUT_FOLDER", c.Output.AutoOutputFolder)
	c.Output.Concurrency = envInt("PHOTOASSISTANT_EXPORT_CONCURRENCY", c.Output.Concurrency)
	c.Log.Level = envString("PHOTOASSISTANT_LOG_LEVEL", c.Log.Level)
	c.Log.JSON = envBool("PHOTOASSISTANT_LOG_JSON", c.Log.JSON)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Clustering.Threshold <= 0 {
		return fmt.Errorf("clustering.threshold must be positive")
	}

	if c.Clustering.CanonicalWidth < 1 || c.Clustering.CanonicalHeight < 1 {
		return fmt.Errorf("clustering.canonical_width and canonical_height must be positive")
	}

	if _, err := similarity.ParseMetric(c.Clustering.Metric); err != nil {
		return fmt.Errorf("clustering.metric: %w", err)
	}

	if _, err := processing.ParseFilter(c.Clustering.Filter); err != nil {
		return fmt.Errorf("clustering.filter: %w", err)
	}

	if len(c.Input.SupportedFormats) == 0 {
		return fmt.Errorf("input.supported_formats cannot be empty")
	}

	if c.Input.MinImageSize < 1 {
		return fmt.Errorf("input.min_image_size must be positive")
	}

	if c.Output.ThumbnailSize < 1 {
		return fmt.Errorf("output.thumbnail_size must be positive")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Output.Concurrency < 1 {
		return fmt.Errorf("output.concurrency must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "photo-assistant", "config.yaml")
}
