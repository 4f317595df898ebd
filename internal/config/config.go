package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig holds persistence settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`    // Flat JSON documents
	HistoryDSN string `mapstructure:"history_dsn"` // SQLite operational log
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ScraperConfig holds timeline scraping settings
type ScraperConfig struct {
	Mirrors        []string      `mapstructure:"mirrors"`      // Nitter mirror base URLs, tried in order
	TargetCount    int           `mapstructure:"target_count"` // Stop once this many posts are collected
	RetriesPerURL  int           `mapstructure:"retries_per_url"`
	RequestTimeout string        `mapstructure:"request_timeout"`
	RSS            RSSConfig     `mapstructure:"rss"`
	Browser        BrowserConfig `mapstructure:"browser"`
}

// RSSConfig holds the RSS fallback source settings
type RSSConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// BrowserConfig holds the headless-browser fallback source settings
type BrowserConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Headless    bool   `mapstructure:"headless"`
	BaseURL     string `mapstructure:"base_url"`
	Timeout     string `mapstructure:"timeout"`
	CookiesFile string `mapstructure:"cookies_file"`
}

// RefreshConfig holds the scheduled re-scrape settings
type RefreshConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	MirrorRequestsPerMinute    int `mapstructure:"mirror_requests_per_minute"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// TrackerConfig holds Google Sheets tracker settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".viralpost-agent"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("VIRALPOST")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "VIRALPOST_ANTHROPIC_API_KEY")
	v.BindEnv("server.port", "VIRALPOST_SERVER_PORT")
	v.BindEnv("storage.data_dir", "VIRALPOST_STORAGE_DATA_DIR")
	v.BindEnv("storage.history_dsn", "VIRALPOST_STORAGE_HISTORY_DSN")
	v.BindEnv("scraper.browser.enabled", "VIRALPOST_SCRAPER_BROWSER_ENABLED")
	v.BindEnv("tracker.enabled", "VIRALPOST_TRACKER_ENABLED")
	v.BindEnv("tracker.spreadsheet_id", "VIRALPOST_TRACKER_SPREADSHEET_ID")
	v.BindEnv("tracker.credentials_file", "VIRALPOST_TRACKER_CREDENTIALS_FILE")
	v.BindEnv("tracker.service_account_json", "VIRALPOST_TRACKER_SERVICE_ACCOUNT_JSON")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	// Storage defaults
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.history_dsn", "./data/history.db")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.temperature", 0.7)

	// Scraper defaults
	v.SetDefault("scraper.mirrors", []string{
		"https://nitter.net",
		"https://nitter.privacyredirect.com",
		"https://nitter.poast.org",
	})
	v.SetDefault("scraper.target_count", 30)
	v.SetDefault("scraper.retries_per_url", 2)
	v.SetDefault("scraper.request_timeout", "15s")
	v.SetDefault("scraper.rss.enabled", true)
	v.SetDefault("scraper.browser.enabled", false)
	v.SetDefault("scraper.browser.headless", true)
	v.SetDefault("scraper.browser.base_url", "https://x.com")
	v.SetDefault("scraper.browser.timeout", "2m")
	v.SetDefault("scraper.browser.cookies_file", "")

	// Refresh defaults
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.cron", "0 6 * * *") // 6am daily

	// Rate limit defaults
	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.mirror_requests_per_minute", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	// Tracker defaults
	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "Generated Posts")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if len(c.Scraper.Mirrors) == 0 {
		return fmt.Errorf("scraper.mirrors must list at least one mirror")
	}
	if c.Scraper.TargetCount <= 0 {
		return fmt.Errorf("scraper.target_count must be positive")
	}
	return nil
}
