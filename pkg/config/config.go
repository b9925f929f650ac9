package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig                 `mapstructure:"app"`
	Server     ServerConfig              `mapstructure:"server"`
	Gateways   map[string]GatewayConfig  `mapstructure:"gateways"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Extraction ExtractionConfig          `mapstructure:"extraction"`
	Limits     LimitsConfig              `mapstructure:"limits"`
	Memory     MemoryConfig              `mapstructure:"memory"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	Prompts    PromptsConfig             `mapstructure:"prompts"`
	Search     SearchConfig              `mapstructure:"search"`
	Weather    WeatherConfig             `mapstructure:"weather"`
	Cache      CacheConfig               `mapstructure:"cache"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Workspace string `mapstructure:"workspace"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type GatewayConfig struct {
	Token   string `mapstructure:"token"`
	Enabled bool   `mapstructure:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Enabled bool   `mapstructure:"enabled"`
}

// Extraction backends.
const (
	BackendFirecrawl = "firecrawl"
	BackendPage      = "page"
	BackendBrowser   = "browser"
)

type ExtractionConfig struct {
	Backend        string          `mapstructure:"backend"`
	Firecrawl      FirecrawlConfig `mapstructure:"firecrawl"`
	Region         RegionConfig    `mapstructure:"region"`
	UserAgent      string          `mapstructure:"user_agent"`
	DeniedHosts    []string        `mapstructure:"denied_hosts"`
	DeniedPatterns []string        `mapstructure:"denied_patterns"`
	// DeniedBackends blocks extraction backends by name. Denying the active
	// backend leaves every agent on its completion fallback.
	DeniedBackends []string        `mapstructure:"denied_backends"`
}

type FirecrawlConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Endpoint  string `mapstructure:"endpoint"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type RegionConfig struct {
	Country   string   `mapstructure:"country"`
	Languages []string `mapstructure:"languages"`
}

type LimitsConfig struct {
	Movies               int     `mapstructure:"movies"`
	Restaurants          int     `mapstructure:"restaurants"`
	Findings             int     `mapstructure:"findings"`
	PlannerTemperature   float64 `mapstructure:"planner_temperature"`
	AgentTemperature     float64 `mapstructure:"agent_temperature"`
	WebSearchTemperature float64 `mapstructure:"web_search_temperature"`
}

type MemoryConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	TranscriptPath     string `mapstructure:"transcript_path"`
	TranscriptMaxBytes int64  `mapstructure:"transcript_max_bytes"`
}

type PromptsConfig struct {
	Directory string `mapstructure:"directory"`
	Watch     bool   `mapstructure:"watch"`
}

type SearchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxResults int  `mapstructure:"max_results"`
}

type WeatherConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	GeocodeURL  string `mapstructure:"geocode_url"`
	ForecastURL string `mapstructure:"forecast_url"`
}

// CacheConfig enables the Redis cache of live extraction answers.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// defaults also register every key so OUTING_* variables override them.
var defaults = map[string]any{
	"app.name":                        "outing",
	"app.workspace":                   "",
	"server.port":                     8080,
	"server.allow_origins":            []string{"*"},
	"extraction.backend":              BackendFirecrawl,
	"extraction.firecrawl.api_key":    "",
	"extraction.firecrawl.endpoint":   "https://api.firecrawl.dev/v2/scrape",
	"extraction.firecrawl.timeout_ms": 60000,
	"extraction.region.country":       "IN",
	"extraction.region.languages":     []string{"en"},
	"extraction.user_agent":           "",
	"limits.movies":                   5,
	"limits.restaurants":              5,
	"limits.findings":                 3,
	"limits.planner_temperature":      0.2,
	"limits.agent_temperature":        0.3,
	"limits.web_search_temperature":   0.4,
	"memory.type":                     "sqlite",
	"memory.path":                     "outing.db",
	"logging.level":                   "info",
	"logging.format":                  "json",
	"logging.transcript_path":         "",
	"logging.transcript_max_bytes":    10 * 1024 * 1024,
	"prompts.directory":               "",
	"prompts.watch":                   false,
	"search.enabled":                  false,
	"search.max_results":              5,
	"weather.enabled":                 true,
	"weather.geocode_url":             "https://geocoding-api.open-meteo.com/v1/search",
	"weather.forecast_url":            "https://api.open-meteo.com/v1/forecast",
	"cache.enabled":                   false,
	"cache.address":                   "localhost:6379",
	"cache.password":                  "",
	"cache.db":                        0,
	"cache.ttl":                       "15m",
}

// LoadConfig reads a YAML or JSON file (the format follows the extension)
// with OUTING_* environment overrides. A .env file in the working directory
// is loaded first. An empty path searches for config.{yaml,json} in . and
// ./configs; a missing file then leaves the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("OUTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	applyWellKnownEnv(&cfg)
	return &cfg, nil
}

// applyWellKnownEnv fills credentials from the conventional variable names
// when the file left them empty.
func applyWellKnownEnv(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	if cfg.Gateways == nil {
		cfg.Gateways = map[string]GatewayConfig{}
	}
	for _, wk := range []struct{ name, env string }{{"gemini", "GEMINI_API_KEY"}, {"openai", "OPENAI_API_KEY"}} {
		key := os.Getenv(wk.env)
		if key == "" {
			continue
		}
		p := cfg.Providers[wk.name]
		if p.APIKey == "" {
			p.APIKey = key
		}
		if name, _ := cfg.GetDefaultProvider(); name == "" {
			p.Enabled = true
		}
		cfg.Providers[wk.name] = p
	}

	for name, env := range map[string]string{"telegram": "TELEGRAM_TOKEN", "discord": "DISCORD_TOKEN"} {
		if token := os.Getenv(env); token != "" {
			g := cfg.Gateways[name]
			if g.Token == "" {
				g.Token = token
			}
			cfg.Gateways[name] = g
		}
	}
	if cfg.Extraction.Firecrawl.APIKey == "" {
		cfg.Extraction.Firecrawl.APIKey = os.Getenv("FIRECRAWL_API_KEY")
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
}

// GetDefaultProvider returns the first enabled provider, by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.gateway("telegram")
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.gateway("discord")
}

func (c *Config) gateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	name, p := c.GetDefaultProvider()
	switch {
	case name == "":
		errs = append(errs, errors.New("no enabled provider: set providers.<name>.enabled or GEMINI_API_KEY"))
	case p.APIKey == "" && p.BaseURL == "":
		errs = append(errs, fmt.Errorf("providers.%s.api_key is required", name))
	}

	switch c.Extraction.Backend {
	case BackendFirecrawl:
		if c.Extraction.Firecrawl.APIKey == "" {
			errs = append(errs, errors.New("extraction.firecrawl.api_key is required for the firecrawl backend"))
		}
	case BackendPage, BackendBrowser:
	default:
		errs = append(errs, fmt.Errorf("unknown extraction backend %q", c.Extraction.Backend))
	}

	if c.Cache.Enabled && c.Cache.Address == "" {
		errs = append(errs, errors.New("cache.address is required when the cache is enabled"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}
