package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Store       StoreConfig
	Proxy       ProxyConfig
	Analysis    AnalysisConfig
	Cache       CacheConfig
	Sinks       SinkConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	OTEL        OTELConfig
}

// StoreConfig holds upstream store API and request policy configuration
type StoreConfig struct {
	FeedBaseURL       string
	SearchBaseURL     string
	UserAgent         string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	Limiter           string // "window" or "bucket"
	RequestPause      time.Duration
	MaxAttempts       int
	BackoffBase       time.Duration
	BreakerFailures   int
	BreakerCooldown   time.Duration
}

// ProxyConfig holds egress proxy configuration
type ProxyConfig struct {
	Enabled   bool
	SourceURL string
	Static    []string
}

// AnalysisConfig holds batch analysis configuration
type AnalysisConfig struct {
	Countries       []string
	Chart           string
	TopLimit        int
	Workers         int
	KeywordsPerApp  int
	SuggestionLimit int
	TopSuggestions  int
	NewAppDays      int
	StopwordsPath   string
}

// CacheConfig holds suggestion cache configuration
type CacheConfig struct {
	Backend    string // "memory", "lru" or "redis"
	LRUSize    int
	TTLSeconds int
}

// SinkConfig selects report outputs
type SinkConfig struct {
	OutputDir string
	CSV       bool
	Postgres  bool
	Typesense bool
	Events    bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// DefaultCountries is the storefront list scanned when ANALYSIS_COUNTRIES is unset.
var DefaultCountries = []string{
	"cn", "co", "mw", "sk", "rw", "to", "kg", "gw", "pa", "uy", "xk", "sn", "sv", "mr", "fi",
	"is", "tz", "st", "pk", "dz", "si", "bo", "bz", "mm", "ga", "la", "zw", "sl", "fj", "by",
	"hu", "lr", "za", "th", "ao", "lb", "jo", "ne", "ly", "hn", "sc", "tr", "dk", "vg", "ch",
	"gr", "tj", "bm", "pw", "lc", "id", "vu", "pg", "ca", "jm", "ai", "at", "jp", "ar", "bb",
	"de", "ag", "gm", "ky", "mn", "bf", "ye", "es", "td", "my", "no", "vc", "ni", "ph", "ke",
	"fm", "tn", "ro", "kz", "az", "hr", "il", "tt", "mv", "eg", "ng", "cv", "br", "tc", "be",
	"ug", "bt", "kw", "fr", "om", "lu", "pt", "cl", "np", "lt", "iq", "na", "ci", "tm", "ba",
	"bg", "mx", "cm", "ma", "cr", "cg", "rs", "me", "mt", "tw", "ve", "nz", "gb", "zm", "nr",
	"mg", "bn", "mz", "kh", "do", "py", "vn", "gt", "dm", "ee", "ua", "kn", "kr", "cz", "us",
	"cy", "gy", "sz", "mu", "pe", "qa", "sr", "au", "lv", "sa", "cd", "sb", "it", "af", "uz",
	"md", "in", "nl", "pl", "hk", "bh", "sg", "bw", "mk", "gd", "ae", "lk", "se", "ru", "ie",
	"bj", "am", "gh", "mo", "ml", "ms", "bs", "ec", "al",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Store: StoreConfig{
			FeedBaseURL:       getEnv("STORE_FEED_BASE_URL", "https://rss.applemarketingtools.com/api/v2"),
			SearchBaseURL:     getEnv("STORE_SEARCH_BASE_URL", "https://itunes.apple.com"),
			UserAgent:         getEnv("STORE_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"),
			RequestTimeout:    getEnvAsDuration("STORE_REQUEST_TIMEOUT", 10*time.Second),
			RequestsPerMinute: getEnvAsInt("STORE_REQUESTS_PER_MINUTE", 20),
			Limiter:           getEnv("STORE_LIMITER", "window"),
			RequestPause:      time.Duration(getEnvAsInt("STORE_REQUEST_PAUSE_MS", 500)) * time.Millisecond,
			MaxAttempts:       getEnvAsInt("STORE_MAX_ATTEMPTS", 3),
			BackoffBase:       getEnvAsDuration("STORE_BACKOFF_BASE", 2*time.Second),
			BreakerFailures:   getEnvAsInt("STORE_BREAKER_FAILURES", 10),
			BreakerCooldown:   getEnvAsDuration("STORE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Proxy: ProxyConfig{
			Enabled:   getEnvAsBool("PROXY_ENABLED", false),
			SourceURL: getEnv("PROXY_SOURCE_URL", ""),
			Static:    getEnvAsList("PROXY_LIST", nil),
		},
		Analysis: AnalysisConfig{
			Countries:       getEnvAsList("ANALYSIS_COUNTRIES", DefaultCountries),
			Chart:           getEnv("ANALYSIS_CHART", "top-free"),
			TopLimit:        getEnvAsInt("ANALYSIS_TOP_LIMIT", 100),
			Workers:         getEnvAsInt("ANALYSIS_WORKERS", 5),
			KeywordsPerApp:  getEnvAsInt("ANALYSIS_KEYWORDS_PER_APP", 3),
			SuggestionLimit: getEnvAsInt("ANALYSIS_SUGGESTION_LIMIT", 5),
			TopSuggestions:  getEnvAsInt("ANALYSIS_TOP_SUGGESTIONS", 5),
			NewAppDays:      getEnvAsInt("ANALYSIS_NEW_APP_DAYS", 60),
			StopwordsPath:   getEnv("STOPWORDS_PATH", ""),
		},
		Cache: CacheConfig{
			Backend:    getEnv("CACHE_BACKEND", "memory"),
			LRUSize:    getEnvAsInt("CACHE_LRU_SIZE", 10000),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 0),
		},
		Sinks: SinkConfig{
			OutputDir: getEnv("REPORT_OUTPUT_DIR", "."),
			CSV:       getEnvAsBool("SINK_CSV", true),
			Postgres:  getEnvAsBool("SINK_POSTGRES", false),
			Typesense: getEnvAsBool("SINK_TYPESENSE", false),
			Events:    getEnvAsBool("SINK_EVENTS", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "asoradar"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:     getEnv("TYPESENSE_API_KEY", "xyz"),
			Collection: getEnv("TYPESENSE_COLLECTION", "aso_keywords"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "asoradar"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline
func (c *Config) Validate() error {
	if c.Store.RequestsPerMinute < 1 {
		return fmt.Errorf("STORE_REQUESTS_PER_MINUTE must be positive, got %d", c.Store.RequestsPerMinute)
	}
	if c.Store.MaxAttempts < 1 {
		return fmt.Errorf("STORE_MAX_ATTEMPTS must be positive, got %d", c.Store.MaxAttempts)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be positive, got %d", c.Analysis.Workers)
	}
	switch c.Cache.Backend {
	case "memory", "lru", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	switch c.Store.Limiter {
	case "window", "bucket":
	default:
		return fmt.Errorf("unknown STORE_LIMITER %q", c.Store.Limiter)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
