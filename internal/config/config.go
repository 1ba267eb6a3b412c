// Package config loads the bridge configuration from an optional YAML file
// with environment variable substitution, then applies environment
// overrides, defaults and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Shopify       ShopifyConfig       `yaml:"shopify"`
	Feed          FeedConfig          `yaml:"feed"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ShopifyConfig defines the Admin API connection.
type ShopifyConfig struct {
	Shop         string          `yaml:"shop"` // e.g. acme.myshopify.com
	ClientID     string          `yaml:"client_id"`
	ClientSecret string          `yaml:"client_secret"`
	APIVersion   string          `yaml:"api_version"`
	TokenURL     string          `yaml:"token_url"`   // derived from shop when empty
	GraphQLURL   string          `yaml:"graphql_url"` // derived from shop when empty
	MaxAttempts  int             `yaml:"max_attempts"`
	Timeout      time.Duration   `yaml:"timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines client-side pacing. A zero rate disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// FeedConfig defines how products become feed items.
type FeedConfig struct {
	PublicDomain        string        `yaml:"public_domain"`
	DeliveryDays        *int          `yaml:"delivery_days"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	Country             string        `yaml:"country"`
	Locale              string        `yaml:"locale"`
	PageSize            int           `yaml:"page_size"`
	MaxAlternateImages  *int          `yaml:"max_alternate_images"`
	DescriptionLimit    int           `yaml:"description_limit"`
	MissingPrice        string        `yaml:"missing_price"` // skip, empty
	URLStyle            string        `yaml:"url_style"`     // variant, product
	PreferPricedVariant bool          `yaml:"prefer_priced_variant"`
}

// ScheduleConfig defines the cache warmer. A zero interval disables it.
type ScheduleConfig struct {
	WarmInterval time.Duration `yaml:"warm_interval"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// TracingConfig defines OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // host:port of an OTLP/gRPC collector
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Environment variables recognized on top of the YAML file.
const (
	EnvShop         = "SHOPIFY_SHOP"
	EnvPublicDomain = "SHOPIFY_PUBLIC_DOMAIN"
	EnvClientID     = "SHOPIFY_CLIENT_ID"
	EnvClientSecret = "SHOPIFY_CLIENT_SECRET"
	EnvAPIVersion   = "SHOPIFY_API_VERSION"
	EnvPort         = "PORT"
	EnvDeliveryDays = "DELIVERY_DAYS"
	EnvCacheTTL     = "FEED_CACHE_TTL" // seconds
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the optional YAML file at path and applies the process
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.Expand(string(data), func(key string) string {
			v, _ := lookup(key)
			return v
		})

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, set func(int)) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer (got %q)", key, v))
			return
		}
		set(n)
	}

	str(EnvShop, &cfg.Shopify.Shop)
	str(EnvPublicDomain, &cfg.Feed.PublicDomain)
	str(EnvClientID, &cfg.Shopify.ClientID)
	str(EnvClientSecret, &cfg.Shopify.ClientSecret)
	str(EnvAPIVersion, &cfg.Shopify.APIVersion)
	str(EnvLogLevel, &cfg.Logging.Level)
	str(EnvLogFormat, &cfg.Logging.Format)
	integer(EnvPort, func(n int) { cfg.Server.Port = n })
	integer(EnvDeliveryDays, func(n int) { cfg.Feed.DeliveryDays = &n })
	integer(EnvCacheTTL, func(n int) { cfg.Feed.CacheTTL = time.Duration(n) * time.Second })

	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyShopifyDefaults(&cfg.Shopify)
	applyFeedDefaults(&cfg.Feed)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	// A cold build pages through the whole catalog.
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 5 * time.Minute
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
}

func applyShopifyDefaults(s *ShopifyConfig) {
	s.Shop = bareHost(s.Shop)
	if s.APIVersion == "" {
		s.APIVersion = "2025-01"
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 8
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.RateLimit.PerSecond > 0 && s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 1
	}
}

func applyFeedDefaults(f *FeedConfig) {
	f.PublicDomain = bareHost(f.PublicDomain)
	if f.DeliveryDays == nil {
		f.DeliveryDays = intPtr(2)
	}
	if f.CacheTTL == 0 {
		f.CacheTTL = 900 * time.Second
	}
	if f.Country == "" {
		f.Country = "CZ"
	}
	if f.Locale == "" {
		f.Locale = "cs"
	}
	if f.PageSize == 0 {
		f.PageSize = 100
	}
	if f.MaxAlternateImages == nil {
		f.MaxAlternateImages = intPtr(10)
	}
	if f.DescriptionLimit == 0 {
		f.DescriptionLimit = 320
	}
	if f.MissingPrice == "" {
		f.MissingPrice = "skip"
	}
	if f.URLStyle == "" {
		f.URLStyle = "variant"
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "zbozi-feed"
	}
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Shopify.Shop == "" {
		errs = append(errs, fmt.Errorf("shopify.shop (%s) is required", EnvShop))
	}
	if cfg.Shopify.ClientID == "" {
		errs = append(errs, fmt.Errorf("shopify.client_id (%s) is required", EnvClientID))
	}
	if cfg.Shopify.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("shopify.client_secret (%s) is required", EnvClientSecret))
	}
	if cfg.Feed.PublicDomain == "" {
		errs = append(errs, fmt.Errorf("feed.public_domain (%s) is required", EnvPublicDomain))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535 (got %d)", cfg.Server.Port))
	}
	if cfg.Shopify.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("shopify.max_attempts must be positive (got %d)", cfg.Shopify.MaxAttempts))
	}
	if cfg.Shopify.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("shopify.rate_limit.per_second must not be negative"))
	}
	for _, raw := range []struct{ key, val string }{
		{"shopify.token_url", cfg.Shopify.TokenURL},
		{"shopify.graphql_url", cfg.Shopify.GraphQLURL},
	} {
		if raw.val == "" {
			continue
		}
		if u, err := url.Parse(raw.val); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL (got %q)", raw.key, raw.val))
		}
	}

	errs = append(errs, validateFeed(&cfg.Feed)...)

	if cfg.Schedule.WarmInterval < 0 {
		errs = append(errs, fmt.Errorf("schedule.warm_interval must not be negative"))
	}
	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateFeed(f *FeedConfig) []error {
	var errs []error

	if *f.DeliveryDays < 0 {
		errs = append(errs, fmt.Errorf("feed.delivery_days must not be negative (got %d)", *f.DeliveryDays))
	}
	if f.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("feed.cache_ttl must not be negative"))
	}
	if len(f.Country) != 2 {
		errs = append(errs, fmt.Errorf("feed.country must be a two-letter country code (got %q)", f.Country))
	}
	if f.PageSize < 1 || f.PageSize > 250 {
		errs = append(errs, fmt.Errorf("feed.page_size must be 1-250 (got %d)", f.PageSize))
	}
	if *f.MaxAlternateImages < 0 {
		errs = append(errs, fmt.Errorf("feed.max_alternate_images must not be negative"))
	}
	if f.DescriptionLimit < 4 {
		errs = append(errs, fmt.Errorf("feed.description_limit must be at least 4 (got %d)", f.DescriptionLimit))
	}

	switch f.MissingPrice {
	case "skip", "empty":
	default:
		errs = append(errs, fmt.Errorf("feed.missing_price must be one of: skip, empty (got %q)", f.MissingPrice))
	}
	switch f.URLStyle {
	case "variant", "product":
	default:
		errs = append(errs, fmt.Errorf("feed.url_style must be one of: variant, product (got %q)", f.URLStyle))
	}

	return errs
}

// bareHost strips a scheme and trailing slashes from a domain value.
func bareHost(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimRight(s, "/")
}

func intPtr(n int) *int {
	return &n
}
