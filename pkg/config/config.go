package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: all environment variables are read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data providers
	MarketData MarketDataConfig
	CoinGecko  CoinGeckoConfig
	FRED       FREDConfig

	// Versioned domain config files (registry, mappings, ground truth)
	Files FileConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MarketDataConfig holds the equities data provider configuration
type MarketDataConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Workers   int // concurrent per-symbol fetch workers
	RateRPS   float64
	RateBurst int
}

// CoinGeckoConfig holds the token market data provider configuration
type CoinGeckoConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateRPS   float64
	RateBurst int
}

// FREDConfig holds the macro series provider configuration
type FREDConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FileConfig holds paths to the versioned YAML configuration files
type FileConfig struct {
	RegistryPath    string
	MappingsPath    string
	GroundTruthPath string
	HotReload       bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: this is the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External data providers
		MarketData: MarketDataConfig{
			BaseURL:   getEnv("MARKETDATA_BASE_URL", "https://api.marketdata.app/v1"),
			APIKey:    getEnv("MARKETDATA_API_KEY", ""),
			Timeout:   getEnvAsDuration("MARKETDATA_TIMEOUT", "20s"),
			Workers:   getEnvAsInt("MARKETDATA_WORKERS", 4),
			RateRPS:   getEnvAsFloat("MARKETDATA_RATE_RPS", 5),
			RateBurst: getEnvAsInt("MARKETDATA_RATE_BURST", 5),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:   getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:    getEnv("COINGECKO_API_KEY", ""),
			Timeout:   getEnvAsDuration("COINGECKO_TIMEOUT", "20s"),
			RateRPS:   getEnvAsFloat("COINGECKO_RATE_RPS", 0.5),
			RateBurst: getEnvAsInt("COINGECKO_RATE_BURST", 1),
		},
		FRED: FREDConfig{
			BaseURL: getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
			APIKey:  getEnv("FRED_API_KEY", ""),
			Timeout: getEnvAsDuration("FRED_TIMEOUT", "20s"),
		},

		// Versioned domain config files
		Files: FileConfig{
			RegistryPath:    getEnv("REGISTRY_PATH", "config/registry.yaml"),
			MappingsPath:    getEnv("MAPPINGS_PATH", "config/mappings.yaml"),
			GroundTruthPath: getEnv("GROUND_TRUTH_PATH", "config/ground_truth.yaml"),
			HotReload:       getEnvAsBool("CONFIG_HOT_RELOAD", true),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Files.RegistryPath == "" {
		return fmt.Errorf("REGISTRY_PATH is required")
	}
	if c.Files.MappingsPath == "" {
		return fmt.Errorf("MAPPINGS_PATH is required")
	}

	if c.MarketData.Workers < 1 {
		return fmt.Errorf("MARKETDATA_WORKERS must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
