package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"INGESTD_API_KEY"`

	// Chunk storage
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// Workflow notifications; empty disables waitpoint completion.
	WaitpointBaseURL string `env:"WAITPOINT_BASE_URL"`

	// Worker pool
	WorkerCount int `env:"WORKER_COUNT" envDefault:"4"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Chunking defaults
	DefaultChunkSize int `env:"DEFAULT_CHUNK_SIZE" envDefault:"2048"`
	DefaultBatchSize int `env:"DEFAULT_BATCH_SIZE" envDefault:"5"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// Load reads configuration from the environment and normalizes out-of-range
// values back to their defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 2048
	}
	if cfg.DefaultBatchSize < 0 {
		cfg.DefaultBatchSize = 0
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("INGESTD_API_KEY is required")
	}
	return nil
}
