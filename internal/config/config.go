package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/image-sampler/pkg/processing"
	"github.com/menta2k/image-sampler/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Sampler  SamplerConfig  `json:"sampler"`
	Source   SourceConfig   `json:"source"`
	Output   OutputConfig   `json:"output"`
	Describe DescribeConfig `json:"describe"`
	Log      LogConfig      `json:"log"`
}

// SamplerConfig holds the sample request
type SamplerConfig struct {
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	Count   int   `json:"count"`
	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"`
	Retries int   `json:"retries"`
}

// SourceConfig holds configuration for image loading
type SourceConfig struct {
	SupportedFormats   []string `json:"supported_formats"`
	AutoOrientation    bool     `json:"auto_orientation"`
	HTTPTimeoutSeconds int      `json:"http_timeout_seconds"`
	MaxImageMB         int      `json:"max_image_mb"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
	Dir      string `json:"dir"`
	Prefix   string `json:"prefix"`
	Manifest bool   `json:"manifest"`
	Debug    bool   `json:"debug"`
}

// DescribeConfig holds configuration for captioning samples with Ollama
type DescribeConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Width:   100,
			Height:  50,
			Count:   3,
			Workers: 4,
		},
		Source: SourceConfig{
			SupportedFormats:   []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"},
			AutoOrientation:    true,
			HTTPTimeoutSeconds: 30,
			MaxImageMB:         64,
		},
		Output: OutputConfig{
			Format:  "jpg",
			Quality: 90,
			Dir:     "./samples",
		},
		Describe: DescribeConfig{
			URL:   "http://localhost:11434",
			Model: "llava",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SampleSize returns the configured sample size
func (c *Config) SampleSize() types.Size {
	return types.Size{Width: c.Sampler.Width, Height: c.Sampler.Height}
}

// Validate checks if the configuration is valid. Sample size bounds depend
// on the image and are checked by the sampler.
func (c *Config) Validate() error {
	if c.Sampler.Width < 0 || c.Sampler.Height < 0 {
		return fmt.Errorf("sampler.width and sampler.height must not be negative")
	}

	if c.Sampler.Count <= 0 {
		return fmt.Errorf("sampler.count must be positive")
	}

	if c.Sampler.Retries < 0 {
		return fmt.Errorf("sampler.retries must not be negative")
	}

	if !processing.IsSupportedFormat(c.Output.Format) {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Source.MaxImageMB < 1 {
		return fmt.Errorf("source.max_image_mb must be positive")
	}

	if len(c.Source.SupportedFormats) == 0 {
		return fmt.Errorf("source.supported_formats cannot be empty")
	}

	if c.Describe.Enabled && (c.Describe.URL == "" || c.Describe.Model == "") {
		return fmt.Errorf("describe.url and describe.model are required when describe is enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-sampler", "config.json")
}
