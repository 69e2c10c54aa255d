package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	APIURL          string        `envconfig:"TODO_API_URL"          default:"http://localhost:8080"`
	RequestTimeout  time.Duration `envconfig:"TODO_REQUEST_TIMEOUT"  default:"10s"`
	TokenStore      string        `envconfig:"TODO_TOKEN_STORE"      default:"file"`
	TokenPath       string        `envconfig:"TODO_TOKEN_PATH"`
	TokenPassphrase string        `envconfig:"TODO_TOKEN_PASSPHRASE"`
	LogLevel        string        `envconfig:"LOG_LEVEL"             default:"warn"`
	LogFormat       string        `envconfig:"LOG_FORMAT"            default:"text"`
}

// LoadConfig reads an optional .env file from the working directory and then
// the process environment.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Debug("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	logger.Debugf("Configuration loaded: API=%s, TokenStore=%s, Timeout=%s", cfg.APIURL, cfg.TokenStore, cfg.RequestTimeout)
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return errors.New("configuration error: TODO_API_URL is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("configuration error: TODO_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	c.TokenStore = strings.ToLower(strings.TrimSpace(c.TokenStore))
	switch c.TokenStore {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("configuration error: unknown TODO_TOKEN_STORE %q", c.TokenStore)
	}

	if c.TokenPath == "" && c.TokenStore != StoreMemory {
		path, err := DefaultTokenPath(c.TokenStore)
		if err != nil {
			return err
		}
		c.TokenPath = path
	}
	return nil
}

// DefaultTokenPath places the token under the user's config directory.
func DefaultTokenPath(store string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	name := "session.json"
	if store == StoreSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, "todo-client", name), nil
}
