package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const envPrefix = "GLOSSA"

// envConfig is read from GLOSSA_* variables.
type envConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"glossa:"`

	APIKey   string `envconfig:"API_KEY"`
	Provider string `envconfig:"PROVIDER"`
	BaseURL  string `envconfig:"BASE_URL"`

	Serialization     string        `envconfig:"SERIALIZATION" default:"json"`
	CacheCapacity     int           `envconfig:"CACHE_CAPACITY" default:"1000"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"168h"`
	MaxRetries        int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay        time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	PromptDetection   bool          `envconfig:"PROMPT_DETECTION" default:"false"`
	LanguageDetection bool          `envconfig:"LANGUAGE_DETECTION" default:"false"`

	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port int    `envconfig:"PORT" default:"8787"`
}

// loadEnv loads path into the environment and processes GLOSSA_* variables.
// A missing file is only an error when it was asked for explicitly.
func loadEnv(path string, explicit bool) (*envConfig, error) {
	if path = strings.TrimSpace(path); path != "" {
		if err := godotenv.Load(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
			}
		}
	}

	var env envConfig
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &env, nil
}

func (e *envConfig) logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(e.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", e.LogLevel, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}
