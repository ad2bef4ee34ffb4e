package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Collections CollectionsConfig `mapstructure:"collections"`
	Fixture     FixtureConfig     `mapstructure:"fixture"`
	Enrichment  EnrichmentConfig  `mapstructure:"enrichment"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port" validate:"required"`
	Mode        string   `mapstructure:"mode" validate:"oneof=debug release test"`
	StaticDir   string   `mapstructure:"static_dir"`
	MaxPageSize int64    `mapstructure:"max_page_size" validate:"gt=0"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// TrustedProxies lists peers whose X-Forwarded-For is believed. Empty
	// means the client IP is always the TCP peer address.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,ip|cidr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type MongoConfig struct {
	// URI overrides every other connection field when set.
	URI        string        `mapstructure:"uri"`
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Database   string        `mapstructure:"database" validate:"required"`
	AuthSource string        `mapstructure:"auth_source"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type CollectionsConfig struct {
	Audits       string `mapstructure:"audits" validate:"required"`
	Users        string `mapstructure:"users" validate:"required"`
	APIs         string `mapstructure:"apis" validate:"required"`
	Applications string `mapstructure:"applications" validate:"required"`
}

type FixtureConfig struct {
	// Path to a JSON file seeding the in-memory store when Mongo is not configured.
	Path string `mapstructure:"path"`
}

type EnrichmentConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"gt=0"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MongoConfigured reports whether enough connection details exist to dial Mongo.
func (c *Config) MongoConfigured() bool {
	if c.Mongo.URI != "" {
		return true
	}
	return c.Mongo.Username != "" && c.Mongo.Password != ""
}

var validate = validator.New()

// Validate checks field constraints and that some data source is configured.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !cfg.MongoConfigured() && cfg.Fixture.Path == "" {
		return errors.New("mongo.username and mongo.password (or mongo.uri) must be set, or fixture.path for offline mode")
	}
	return nil
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_page_size", 1000)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.host", "localhost")
	v.SetDefault("mongo.port", 27017)
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.database", "gravitee")
	v.SetDefault("mongo.auth_source", "admin")
	v.SetDefault("mongo.timeout", 5*time.Second)
	v.SetDefault("collections.audits", "apim_audits")
	v.SetDefault("collections.users", "apim_users")
	v.SetDefault("collections.apis", "apim_apis")
	v.SetDefault("collections.applications", "apim_applications")
	v.SetDefault("fixture.path", "")
	v.SetDefault("enrichment.concurrency", 16)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. GRAVITEE_AUDIT_MONGO_PASSWORD
	v.SetEnvPrefix("gravitee_audit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFile reads a specific config file instead of searching the default paths.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("gravitee_audit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
