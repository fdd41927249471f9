package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/infinizoom/internal/ffmpeg"
	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/viewer"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Frame extraction settings
	Extract ExtractConfig `yaml:"extract"`

	// Viewer settings
	Viewer ViewerConfig `yaml:"viewer"`

	// Export settings
	Export ExportConfig `yaml:"export"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type ExtractConfig struct {
	FrameCount   int           `yaml:"frame_count"`
	MaxDimension int           `yaml:"max_dimension"`
	Quality      int           `yaml:"quality"`
	SeekTimeout  time.Duration `yaml:"seek_timeout"` // negative waits forever
}

type ViewerConfig struct {
	AutoPlayInterval time.Duration `yaml:"autoplay_interval"`
	WindowWidth      float32       `yaml:"window_width"`
	WindowHeight     float32       `yaml:"window_height"`
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the extractor or viewer cannot work with
func (c *Config) Validate() error {
	if c.Extract.FrameCount < 1 {
		return fmt.Errorf("extract.frame_count must be at least 1, got %d", c.Extract.FrameCount)
	}
	if c.Extract.MaxDimension < 1 {
		return fmt.Errorf("extract.max_dimension must be positive, got %d", c.Extract.MaxDimension)
	}
	if c.Extract.Quality < 1 || c.Extract.Quality > 100 {
		return fmt.Errorf("extract.quality must be within 1-100, got %d", c.Extract.Quality)
	}
	if c.Viewer.AutoPlayInterval <= 0 {
		return fmt.Errorf("viewer.autoplay_interval must be positive, got %v", c.Viewer.AutoPlayInterval)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("export.workers cannot be negative")
	}
	return nil
}

// ExtractOptions converts the extract section for the frame extractor
func (c *Config) ExtractOptions() frames.Options {
	return frames.Options{
		FrameCount:   c.Extract.FrameCount,
		MaxDimension: c.Extract.MaxDimension,
		Quality:      c.Extract.Quality,
		SeekTimeout:  c.Extract.SeekTimeout,
	}
}

// FFmpegOptions converts the ffmpeg section for the executor
func (c *Config) FFmpegOptions() ffmpeg.Options {
	return ffmpeg.Options{
		FFmpegPath:  c.FFmpeg.BinaryPath,
		FFprobePath: c.FFmpeg.ProbePath,
		Threads:     c.FFmpeg.Threads,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	def := frames.DefaultOptions()
	return &Config{
		Extract: ExtractConfig{
			FrameCount:   def.FrameCount,
			MaxDimension: def.MaxDimension,
			Quality:      def.Quality,
			SeekTimeout:  def.SeekTimeout,
		},
		Viewer: ViewerConfig{
			AutoPlayInterval: viewer.DefaultAutoPlayInterval,
			WindowWidth:      1100,
			WindowHeight:     760,
		},
		Export: ExportConfig{
			OutputDir: "./frames",
			Workers:   4,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     ffmpeg.DefaultPreset,
			CRF:        ffmpeg.DefaultCRF,
		},
	}
}

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".infinizoom", "config.yaml")
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".infinizoom", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
