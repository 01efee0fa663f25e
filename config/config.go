package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Admin API configuration
	AdminAPIURL         string
	AdminAPIToken       string
	RequestTimeout      time.Duration
	BreakerFailureRatio float64

	// Redis configuration
	RedisURL    string
	InflightTTL time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string
	ActivityChannel    string

	// Dashboard configuration
	EventsFile        string
	AdminName         string
	MutationRateLimit int

	// Logging
	LogLevel string
	LogFile  string

	// Monitoring
	EnableMetrics bool
}

// adminAPIKeys are checked in order; the first non-empty one wins.
var adminAPIKeys = []string{"ADMIN_API_URL", "NEXT_PUBLIC_API_URL", "API_URL"}

// LoadConfig reads configuration from the environment and, when
// EVENT_ADMIN_CONFIG names one, from a config file. Environment values
// take precedence over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if path := v.GetString("EVENT_ADMIN_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := bindConfig(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("PORT", "8090")
	v.SetDefault("ENVIRONMENT", "development")

	// Admin API
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("BREAKER_FAILURE_RATIO", 0.6)

	// Redis
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("INFLIGHT_TTL", "30s")

	// PubNub
	v.SetDefault("PUBNUB_USER_ID", "event-admin")
	v.SetDefault("ACTIVITY_CHANNEL", "admin-activity")

	// Dashboard
	v.SetDefault("EVENTS_FILE", "")
	v.SetDefault("ADMIN_NAME", "")
	v.SetDefault("MUTATION_RATE_LIMIT", 30)

	// Logging
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	// Monitoring
	v.SetDefault("ENABLE_METRICS", true)
}

func bindConfig(v *viper.Viper) *Config {
	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),

		AdminAPIToken:       v.GetString("ADMIN_API_TOKEN"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		BreakerFailureRatio: v.GetFloat64("BREAKER_FAILURE_RATIO"),

		RedisURL:    v.GetString("REDIS_URL"),
		InflightTTL: v.GetDuration("INFLIGHT_TTL"),

		PubNubPublishKey:   v.GetString("PUBNUB_PUBLISH_KEY"),
		PubNubSubscribeKey: v.GetString("PUBNUB_SUBSCRIBE_KEY"),
		PubNubSecretKey:    v.GetString("PUBNUB_SECRET_KEY"),
		PubNubUserID:       v.GetString("PUBNUB_USER_ID"),
		ActivityChannel:    v.GetString("ACTIVITY_CHANNEL"),

		EventsFile:        v.GetString("EVENTS_FILE"),
		AdminName:         v.GetString("ADMIN_NAME"),
		MutationRateLimit: v.GetInt("MUTATION_RATE_LIMIT"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		EnableMetrics: v.GetBool("ENABLE_METRICS"),
	}

	for _, key := range adminAPIKeys {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			cfg.AdminAPIURL = strings.TrimRight(s, "/")
			break
		}
	}
	return cfg
}

// Validate rejects values that would make the dashboard misbehave. A
// missing admin API URL is not an error here: it is reported per view as
// a configuration error instead of stopping the process.
func (c *Config) Validate() error {
	var errs []error

	if c.AdminAPIURL != "" {
		u, err := url.Parse(c.AdminAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("ADMIN_API_URL %q is not an absolute URL", c.AdminAPIURL))
		}
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.InflightTTL <= 0 {
		errs = append(errs, errors.New("INFLIGHT_TTL must be positive"))
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		errs = append(errs, errors.New("BREAKER_FAILURE_RATIO must be in (0, 1]"))
	}
	if c.MutationRateLimit < 0 {
		errs = append(errs, errors.New("MUTATION_RATE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PubNubEnabled reports whether activity notifications can be published.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}
