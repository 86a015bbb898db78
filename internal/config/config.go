package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/stockscan/internal/core"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DevMode   bool            `mapstructure:"dev_mode"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Catalog   []CatalogEntry  `mapstructure:"catalog"`
	Warmup    WarmupConfig    `mapstructure:"warmup"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	APIKey       string        `mapstructure:"api_key"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ProvidersConfig struct {
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
	Yahoo        YahooConfig        `mapstructure:"yahoo"`
}

type AlphaVantageConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	DailyLimit  int           `mapstructure:"daily_limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type YahooConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the payload cache backend.
type CacheConfig struct {
	Backend string                   `mapstructure:"backend"` // memory, gorm or redis
	TTL     map[string]time.Duration `mapstructure:"ttl"`     // per category overrides
	Redis   RedisConfig              `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Prefix    string        `mapstructure:"prefix"`
	Retention time.Duration `mapstructure:"retention"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Fallback string        `mapstructure:"fallback"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// PipelineConfig tunes the advice pipeline.
type PipelineConfig struct {
	SampleSize int `mapstructure:"sample_size"`
	NewsLimit  int `mapstructure:"news_limit"`
}

// CatalogEntry is a reference display name used for name-based resolution.
type CatalogEntry struct {
	ISIN string `mapstructure:"isin"`
	Name string `mapstructure:"name"`
}

// WarmupConfig schedules cache warm-up runs.
type WarmupConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Schedule    string   `mapstructure:"schedule"`
	Identifiers []string `mapstructure:"identifiers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults. An empty path
// loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Support environment variable overrides
	v.SetEnvPrefix("STOCKSCAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, Defaults())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers scalar defaults so AutomaticEnv can override keys
// that the file leaves out.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("dev_mode", d.DevMode)
	v.SetDefault("providers.alphavantage.api_key", "")
	v.SetDefault("providers.alphavantage.min_interval", d.Providers.AlphaVantage.MinInterval)
	v.SetDefault("providers.alphavantage.daily_limit", d.Providers.AlphaVantage.DailyLimit)
	v.SetDefault("providers.yahoo.enabled", d.Providers.Yahoo.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.claude.api_key", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			WriteTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Providers: ProvidersConfig{
			AlphaVantage: AlphaVantageConfig{
				MinInterval: 12 * time.Second,
				DailyLimit:  25,
				Timeout:     30 * time.Second,
			},
			Yahoo: YahooConfig{
				Enabled: true,
				Timeout: 10 * time.Second,
			},
		},
		Cache: CacheConfig{
			Backend: "gorm",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Prefix:    "stockscan:cache",
				Retention: 30 * 24 * time.Hour,
			},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/stockscan.db",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		LLM: LLMConfig{
			Timeout: 2 * time.Minute,
			Ollama: OllamaConfig{
				Endpoint: "http://localhost:11434",
			},
		},
		Pipeline: PipelineConfig{
			SampleSize: 252,
			NewsLimit:  10,
		},
		Warmup: WarmupConfig{
			Schedule: "0 6 * * 1-5",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// CatalogNames returns the catalog as an identifier to name map.
func (c *Config) CatalogNames() map[string]string {
	out := make(map[string]string, len(c.Catalog))
	for _, e := range c.Catalog {
		out[e.ISIN] = e.Name
	}
	return out
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	if c.Providers.AlphaVantage.MinInterval < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alphavantage min_interval cannot be negative"))
	}

	switch c.Cache.Backend {
	case "memory", "gorm":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("cache.redis.addr required when backend is redis"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	for category := range c.Cache.TTL {
		switch core.Category(category) {
		case core.CategoryQuote, core.CategoryDaily, core.CategoryWeekly,
			core.CategoryMonthly, core.CategoryFundamentals, core.CategoryNews:
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown cache ttl category %q", category))
		}
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	switch c.Archive.Type {
	case "localfs":
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	if c.Pipeline.SampleSize < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("pipeline.sample_size must be at least 2, got %d", c.Pipeline.SampleSize))
	}

	// LLM validation - if provider set, check config exists
	for _, name := range []string{c.LLM.Provider, c.LLM.Fallback} {
		if err := c.LLM.validateProvider(name); err != nil {
			return err
		}
	}

	if c.Warmup.Enabled && c.Warmup.Schedule == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("warmup.schedule required when warmup is enabled"))
	}

	return nil
}

func (l LLMConfig) validateProvider(name string) error {
	switch name {
	case "":
	case "claude":
		if l.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if l.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
		if l.Ollama.Endpoint == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("ollama endpoint required when provider is ollama"))
		}
	case "gemini":
		if l.Gemini.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("gemini api_key required when provider is gemini"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown LLM provider %q", name))
	}
	return nil
}
