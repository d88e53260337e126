package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/planc/f1-data-sync/pkg/models"
)

const (
	DefaultBaseURL = "http://api.jolpi.ca/ergast/f1"
	DefaultDataDir = "data"
	DefaultRemote  = "origin"
	DefaultBranch  = "main"

	DefaultUserName  = "F1 Data Bot"
	DefaultUserEmail = "bot@planc.com"
)

type Config struct {
	Sync      SyncConfig
	External  ExternalAPIConfig
	Git       GitConfig
	Endpoints []models.Endpoint `validate:"required,min=1,unique=Name,dive"`
}

type SyncConfig struct {
	RepoPath      string        `validate:"required"`
	DataDir       string        `validate:"required"`
	Remote        string        `validate:"required"`
	DefaultBranch string        `validate:"required"`
	Interval      time.Duration `validate:"gt=0"`
	PollInterval  time.Duration `validate:"gt=0"`
}

type ExternalAPIConfig struct {
	BaseURL         string        `validate:"required,url"`
	Timeout         int           `validate:"gt=0"`
	BreakerFailures int           `validate:"gt=0"`
	BreakerTimeout  time.Duration `validate:"gt=0"`
}

type GitConfig struct {
	Backend   string `validate:"oneof=cli gogit"`
	UserName  string
	UserEmail string
}

// Load reads an optional dotenv file, then builds the configuration from the
// environment. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Sync: SyncConfig{
			RepoPath:      getEnv("SYNC_REPO_PATH", "."),
			DataDir:       getEnv("SYNC_DATA_DIR", DefaultDataDir),
			Remote:        getEnv("SYNC_REMOTE", DefaultRemote),
			DefaultBranch: getEnv("SYNC_BRANCH", DefaultBranch),
			Interval:      getEnvAsDuration("SYNC_INTERVAL", time.Hour),
			PollInterval:  getEnvAsDuration("SYNC_POLL_INTERVAL", 60*time.Second),
		},
		External: ExternalAPIConfig{
			BaseURL:         getEnv("F1_API_BASE_URL", DefaultBaseURL),
			Timeout:         getEnvAsInt("F1_API_TIMEOUT", 10),
			BreakerFailures: getEnvAsInt("F1_API_BREAKER_FAILURES", 3),
			BreakerTimeout:  getEnvAsDuration("F1_API_BREAKER_TIMEOUT", 5*time.Minute),
		},
		Git: GitConfig{
			Backend:   getEnv("GIT_BACKEND", "cli"),
			UserName:  getEnv("GIT_USER_NAME", DefaultUserName),
			UserEmail: getEnv("GIT_USER_EMAIL", DefaultUserEmail),
		},
	}

	if path := os.Getenv("ENDPOINTS_FILE"); path != "" {
		endpoints, err := LoadEndpointsFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Endpoints = endpoints
	} else {
		cfg.Endpoints = DefaultEndpoints(cfg.External.BaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints on the assembled configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DataPath is the snapshot directory on disk
func (c *Config) DataPath() string {
	return filepath.Join(c.Sync.RepoPath, c.Sync.DataDir)
}

// Timeout returns the per-request HTTP timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.External.Timeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
