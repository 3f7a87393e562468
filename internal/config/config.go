package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":3000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	DatasetDir string   `env:"DATASET_DIR" envDefault:"./databases"`
	ScratchDir string   `env:"SCRATCH_DIR" envDefault:""`
	Languages  []string `env:"LANGUAGES" envDefault:"en"`

	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"` // 100 MiB
	SampleRateHz   int           `env:"SAMPLE_RATE_HZ" envDefault:"16000"`
	SelectAttempts int           `env:"SELECT_ATTEMPTS" envDefault:"500"`
	ExtractTimeout time.Duration `env:"EXTRACT_TIMEOUT" envDefault:"60s"`
	WatchDatasets  bool          `env:"WATCH_DATASETS" envDefault:"true"`

	ScoringURL          string        `env:"SCORING_URL,required"`
	TTSURL              string        `env:"TTS_URL"`
	PhonemizerURL       string        `env:"PHONEMIZER_URL,required"`
	FeatureTablePath    string        `env:"FEATURE_TABLE_PATH"`
	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"30s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile    string
	HTTPAddr   string
	LogLevel   string
	DatasetDir string
	ScratchDir string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatasetDir != "" {
		cfg.DatasetDir = overrides.DatasetDir
	}
	if overrides.ScratchDir != "" {
		cfg.ScratchDir = overrides.ScratchDir
	}

	return cfg, nil
}
