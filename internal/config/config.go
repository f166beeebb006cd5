package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scraper   ScraperConfig
	LLM       LLMConfig
	Affiliate AffiliateConfig
	Monitor   MonitorConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScraperConfig struct {
	Timeout        time.Duration
	RateLimitMin   time.Duration
	RateLimitMax   time.Duration
	MaxRetries     int
	UserAgents     []string
	ProxyPrefixes  []string
	BrowserEnabled bool
	Headless       bool
}

type LLMConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	FastModel    string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

type AffiliateConfig struct {
	BolClientID     string
	BolClientSecret string
	BolSiteCode     string
	TradeTrackerID  string
	DaisyconID      string
	AwinID          string
	PayProID        string
	PlugPayID       string
}

type MonitorConfig struct {
	LinkCheckBatchSize int
	LinkCheckPause     time.Duration
	LinkFailThreshold  int
	SyncInterval       time.Duration
	AlertMaxRetries    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"https://productpraat.nl", "http://localhost:*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "productpraat"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Scraper: ScraperConfig{
			Timeout:        getDurationOrDefault("SCRAPER_TIMEOUT", 20*time.Second),
			RateLimitMin:   getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 3*time.Second),
			RateLimitMax:   getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 15*time.Second),
			MaxRetries:     getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			UserAgents:     getStringSliceOrDefault("SCRAPER_USER_AGENTS", defaultUserAgents()),
			ProxyPrefixes:  getStringSliceOrDefault("SCRAPER_PROXY_PREFIXES", []string{}),
			BrowserEnabled: getBoolOrDefault("SCRAPER_BROWSER_ENABLED", false),
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
		},
		LLM: LLMConfig{
			APIKey:       os.Getenv("LLM_API_KEY"),
			BaseURL:      getEnvOrDefault("LLM_BASE_URL", "https://api.abacus.ai/v1"),
			DefaultModel: getEnvOrDefault("LLM_MODEL", "claude-3-5-sonnet"),
			FastModel:    getEnvOrDefault("LLM_MODEL_FAST", "claude-3-haiku"),
			Temperature:  getFloatOrDefault("LLM_TEMPERATURE", 0.7),
			MaxTokens:    getIntOrDefault("LLM_MAX_TOKENS", 4096),
			Timeout:      getDurationOrDefault("LLM_TIMEOUT", 120*time.Second),
		},
		Affiliate: AffiliateConfig{
			BolClientID:     os.Getenv("BOL_CLIENT_ID"),
			BolClientSecret: os.Getenv("BOL_CLIENT_SECRET"),
			BolSiteCode:     os.Getenv("BOL_SITE_CODE"),
			TradeTrackerID:  os.Getenv("TRADETRACKER_ID"),
			DaisyconID:      os.Getenv("DAISYCON_ID"),
			AwinID:          os.Getenv("AWIN_ID"),
			PayProID:        os.Getenv("PAYPRO_ID"),
			PlugPayID:       os.Getenv("PLUGPAY_ID"),
		},
		Monitor: MonitorConfig{
			LinkCheckBatchSize: getIntOrDefault("LINK_CHECK_BATCH_SIZE", 10),
			LinkCheckPause:     getDurationOrDefault("LINK_CHECK_PAUSE", 2*time.Second),
			LinkFailThreshold:  getIntOrDefault("LINK_FAIL_THRESHOLD", 3),
			SyncInterval:       getDurationOrDefault("COMMISSION_SYNC_INTERVAL", 6*time.Hour),
			AlertMaxRetries:    getIntOrDefault("ALERT_MAX_RETRIES", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Monitor.LinkCheckBatchSize < 1 {
		return fmt.Errorf("LINK_CHECK_BATCH_SIZE must be at least 1")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}

	return nil
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
