// Package config centralises configuration parsing for the health data service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingSalt is returned when DATA_ID_SALT is not configured.
var ErrMissingSalt = errors.New("DATA_ID_SALT is required")

// Config captures runtime configuration values. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type Config struct {
	APIPrefix      string        `mapstructure:"API_V1_PREFIX"`
	DataIDSalt     string        `mapstructure:"DATA_ID_SALT"`
	Debug          bool          `mapstructure:"DEBUG"`
	SampleDataDir  string        `mapstructure:"SAMPLE_DATA_DIR"`
	HTTPAddress    string        `mapstructure:"HTTP_ADDRESS"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	MaxBodyBytes   int64         `mapstructure:"MAX_BODY_BYTES"`
	KafkaBrokers   []string      `mapstructure:"-"`
	KafkaTopic     string        `mapstructure:"KAFKA_TOPIC"`
	PublishTimeout time.Duration `mapstructure:"PUBLISH_TIMEOUT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTIssuer      string        `mapstructure:"JWT_ISSUER"`
	CORSOrigin     string        `mapstructure:"CORS_ORIGIN"`
}

var keys = []string{
	"API_V1_PREFIX",
	"DATA_ID_SALT",
	"DEBUG",
	"SAMPLE_DATA_DIR",
	"HTTP_ADDRESS",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"MAX_BODY_BYTES",
	"KAFKA_BROKERS",
	"KAFKA_TOPIC",
	"PUBLISH_TIMEOUT",
	"JWT_SECRET",
	"JWT_ISSUER",
	"CORS_ORIGIN",
}

// NewViper returns a viper instance reading .env and the environment, with
// defaults applied. Callers may bind extra sources (flags) before LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("API_V1_PREFIX", "/api/v1")
	v.SetDefault("DEBUG", false)
	v.SetDefault("SAMPLE_DATA_DIR", "./sample_data")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MAX_BODY_BYTES", 512<<20)
	v.SetDefault("KAFKA_TOPIC", "health_dataset_events")
	v.SetDefault("PUBLISH_TIMEOUT", 5*time.Second)
	v.SetDefault("JWT_ISSUER", "i5e.identity")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads .env and environment variables into Config.
func Load() (Config, error) {
	return LoadFrom(NewViper())
}

// LoadFrom builds a Config from a prepared viper instance. A missing .env
// file is not an error; a missing salt is.
func LoadFrom(v *viper.Viper) (Config, error) {
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitAndTrim(v.GetString("KAFKA_BROKERS"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is safe to run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataIDSalt) == "" {
		return ErrMissingSalt
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_V1_PREFIX must start with '/', got %q", c.APIPrefix)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0, got %d", c.MaxBodyBytes)
	}
	if c.Debug && strings.TrimSpace(c.SampleDataDir) == "" {
		return errors.New("SAMPLE_DATA_DIR is required when DEBUG is enabled")
	}
	return nil
}

// KafkaEnabled reports whether dataset events should be published.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// AuthEnabled reports whether bearer tokens are required.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
