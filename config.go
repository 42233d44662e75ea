package gatherly

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benaiah8/gatherly/pkg/logger"
)

// ErrMissingRemoteURL is returned when a config carries no data service URL.
var ErrMissingRemoteURL = errors.New("gatherly: remote_url is required")

// Config holds everything needed to assemble a client. Environment
// variables override file values.
type Config struct {
	// RemoteURL is the base URL of the data service.
	RemoteURL string `yaml:"remote_url" env:"GATHERLY_REMOTE_URL,required"`

	// APIKey is the service key sent with every request.
	APIKey string `yaml:"api_key" env:"GATHERLY_API_KEY"`

	// RedisURL switches slot storage from in-process memory to Redis.
	RedisURL string `yaml:"redis_url" env:"GATHERLY_REDIS_URL"`

	// SocketURL enables the realtime change feed.
	SocketURL string `yaml:"socket_url" env:"GATHERLY_SOCKET_URL"`

	Sentry logger.SentryConfig `yaml:"sentry"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gatherly: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("gatherly: parse config: %w", err)
	}

	cfg.applyEnv()
	if cfg.RemoteURL == "" {
		return Config{}, ErrMissingRemoteURL
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.RemoteURL, "GATHERLY_REMOTE_URL")
	override(&c.APIKey, "GATHERLY_API_KEY")
	override(&c.RedisURL, "GATHERLY_REDIS_URL")
	override(&c.SocketURL, "GATHERLY_SOCKET_URL")
	override(&c.Sentry.DSN, "SENTRY_DSN")
	override(&c.Sentry.Environment, "SENTRY_ENVIRONMENT")
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
