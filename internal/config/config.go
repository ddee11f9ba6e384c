package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath    string     `env:"DB_PATH" envDefault:"data/demovote.db"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	StaticDir string     `env:"STATIC_DIR"`
	PublicURL string     `env:"PUBLIC_URL"`

	DocsEnabled bool `env:"DOCS_ENABLED" envDefault:"true"`

	ImageMaxEdge   int     `env:"IMAGE_MAX_EDGE" envDefault:"400"`
	ImageQuality   float64 `env:"IMAGE_QUALITY" envDefault:"0.7"`
	ImageMaxPixels int64   `env:"IMAGE_MAX_PIXELS" envDefault:"40000000"`
	MaxUploadBytes int64   `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	PulseDelay      time.Duration `env:"PULSE_DELAY" envDefault:"500ms"`
	AutoFlipDelay   time.Duration `env:"AUTO_FLIP_DELAY" envDefault:"600ms"`
	SessionIdle     time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
	SessionLimit    int           `env:"SESSION_LIMIT" envDefault:"1000"`
	AudioSampleRate int           `env:"AUDIO_SAMPLE_RATE" envDefault:"22050"`
}

// Load reads an optional .env file from the working directory, then the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.ImageMaxEdge < 1:
		return fmt.Errorf("IMAGE_MAX_EDGE must be positive, got %d", c.ImageMaxEdge)
	case c.ImageQuality <= 0 || c.ImageQuality > 1:
		return fmt.Errorf("IMAGE_QUALITY must be in (0,1], got %v", c.ImageQuality)
	case c.ImageMaxPixels < 1:
		return fmt.Errorf("IMAGE_MAX_PIXELS must be positive, got %d", c.ImageMaxPixels)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	case c.AudioSampleRate < 8000:
		return fmt.Errorf("AUDIO_SAMPLE_RATE must be at least 8000, got %d", c.AudioSampleRate)
	case c.SessionLimit < 1:
		return fmt.Errorf("SESSION_LIMIT must be positive, got %d", c.SessionLimit)
	case c.PulseDelay <= 0 || c.AutoFlipDelay <= 0:
		return errors.New("PULSE_DELAY and AUTO_FLIP_DELAY must be positive")
	}
	return nil
}
