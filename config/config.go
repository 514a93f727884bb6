// Package config loads hfit settings from a YAML file and HFIT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/ZaguanLabs/hfit"
	"github.com/ZaguanLabs/hfit/cache"
	"github.com/ZaguanLabs/hfit/provider"
)

// Config is the full set of run settings.
type Config struct {
	Source      string            `yaml:"source"`
	Target      string            `yaml:"target"`
	Service     string            `yaml:"service"`
	Mode        string            `yaml:"mode"`
	Context     string            `yaml:"context"`
	Style       string            `yaml:"style"`
	Exclude     []string          `yaml:"exclude"`
	Glossary    map[string]string `yaml:"glossary"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Cache       CacheConfig       `yaml:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Retry       RetryConfig       `yaml:"retry"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
}

// OpenAIConfig configures the openai backend.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// CacheConfig configures the translation cache.
type CacheConfig struct {
	Kind string        `yaml:"kind"` // none, memory, redis or sqlite
	TTL  time.Duration `yaml:"ttl"`
	URL  string        `yaml:"url"`
	Path string        `yaml:"path"`
}

// RateLimitConfig limits backend calls. Zero disables limiting.
type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

// RetryConfig controls backend retries. Zero disables retrying.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

// ConcurrencyConfig splits large batches across parallel backend calls.
// A zero chunk size sends each batch whole.
type ConcurrencyConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Workers   int `yaml:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // console or json
}

// Defaults returns the settings used when nothing else is given.
func Defaults() Config {
	return Config{
		Source:  "en",
		Target:  "zh-CN",
		Service: provider.NameGoogle,
		Mode:    string(hfit.ModeFlattened),
		Style:   string(hfit.StyleNeutral),
		OpenAI:  OpenAIConfig{Model: "gpt-4o-mini"},
		Cache: CacheConfig{
			Kind: cache.KindMemory,
			Path: "hfit-cache.db",
		},
		Retry: RetryConfig{MaxRetries: 2},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

// Load returns Defaults overlaid with the YAML file at path (skipped when
// path is empty or missing) and then the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if err := cfg.readYAML(path); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) readYAML(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- only loading a config file
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("No YAML configuration file found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Loaded configuration")
	return nil
}

// applyEnv overlays HFIT_* variables. lookup is os.LookupEnv outside tests.
func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"HFIT_SOURCE":          &cfg.Source,
		"HFIT_TARGET":          &cfg.Target,
		"HFIT_SERVICE":         &cfg.Service,
		"HFIT_MODE":            &cfg.Mode,
		"HFIT_CACHE":           &cfg.Cache.Kind,
		"HFIT_CACHE_PATH":      &cfg.Cache.Path,
		"HFIT_REDIS_URL":       &cfg.Cache.URL,
		"HFIT_OPENAI_MODEL":    &cfg.OpenAI.Model,
		"HFIT_OPENAI_BASE_URL": &cfg.OpenAI.BaseURL,
		"HFIT_LOG_LEVEL":       &cfg.Log.Level,
		"HFIT_LOG_FORMAT":      &cfg.Log.Format,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v, ok := lookup("HFIT_OPENAI_API_KEY"); ok && v != "" {
		cfg.OpenAI.APIKey = v
	}

	if v, ok := lookup("HFIT_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HFIT_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}
	if v, ok := lookup("HFIT_RATE_LIMIT_RPM"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HFIT_RATE_LIMIT_RPM: %w", err)
		}
		cfg.RateLimit.RPM = n
	}
	return nil
}

var (
	cacheKinds = []string{cache.KindNone, cache.KindMemory, cache.KindRedis, cache.KindSQLite}
	logLevels  = []string{"debug", "info", "warn", "error"}
	styles     = []string{string(hfit.StyleFormal), string(hfit.StyleNeutral), string(hfit.StyleCasual), string(hfit.StyleTechnical)}
)

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	if cfg.Target == "" {
		return errors.New("target language is required")
	}
	if !slices.Contains(provider.Names, cfg.Service) {
		return fmt.Errorf("unknown service %q (want one of %v)", cfg.Service, provider.Names)
	}
	if _, err := hfit.ParseMode(cfg.Mode); err != nil {
		return err
	}
	if cfg.Style != "" && !slices.Contains(styles, cfg.Style) {
		return fmt.Errorf("unknown style %q (want one of %v)", cfg.Style, styles)
	}
	if !slices.Contains(cacheKinds, cfg.Cache.Kind) {
		return fmt.Errorf("unknown cache kind %q (want one of %v)", cfg.Cache.Kind, cacheKinds)
	}
	if cfg.Cache.Kind == cache.KindRedis && cfg.Cache.URL == "" {
		return errors.New("redis cache requires cache.url")
	}
	if cfg.Service == provider.NameOpenAI && cfg.OpenAI.APIKey == "" {
		return errors.New("openai service requires an API key (OPENAI_API_KEY)")
	}
	if !slices.Contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	if cfg.RateLimit.RPM < 0 || cfg.Retry.MaxRetries < 0 || cfg.Concurrency.ChunkSize < 0 {
		return errors.New("rate_limit, retry and concurrency values must not be negative")
	}
	return nil
}

// CacheOptions converts the cache section for cache.Open.
func (cfg *Config) CacheOptions() cache.Options {
	return cache.Options{
		Kind: cfg.Cache.Kind,
		TTL:  cfg.Cache.TTL,
		URL:  cfg.Cache.URL,
		Path: cfg.Cache.Path,
	}
}

// ProviderConfig converts the backend settings for provider.New.
func (cfg *Config) ProviderConfig() provider.Config {
	return provider.Config{
		OpenAI: provider.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
	}
}

// Provider builds the configured backend and wraps it in the enabled
// decorators. Rate limiting sits innermost so every chunk and every retry
// takes a token; chunking sits outermost.
func (cfg *Config) Provider() (hfit.AIProvider, error) {
	p, err := provider.New(cfg.Service, cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPM > 0 {
		p = hfit.NewRateLimitedProvider(p, hfit.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RPM,
			BurstSize:         cfg.RateLimit.Burst,
		})
	}
	if cfg.Retry.MaxRetries > 0 {
		rc := hfit.DefaultRetryConfig()
		rc.MaxRetries = cfg.Retry.MaxRetries
		p = hfit.NewRetryableProvider(p, rc)
	}
	if cfg.Concurrency.ChunkSize > 0 {
		p = hfit.NewChunkedProvider(p, hfit.ChunkConfig{
			Size:    cfg.Concurrency.ChunkSize,
			Workers: cfg.Concurrency.Workers,
		})
	}
	return p, nil
}
