// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Search      SearchConfig
	Region      RegionConfig
	Sources     SourcesConfig
	AWS         AWSConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type SearchConfig struct {
	CacheTTL              int // in seconds
	DefaultLimit          int
	MaxLimit              int
	ExternalTimeout       int // per-adapter timeout, in seconds
	ExternalBaseRelevance float64
	CachePurgeInterval    int // in seconds
}

type RegionConfig struct {
	Code     string
	Name     string
	Currency string
}

type SourcesConfig struct {
	WebSearch WebSearchConfig
	Auction   AuctionConfig
}

// WebSearchConfig drives the web-search aggregator source. The engine is a
// programmable search index restricted to the marketplace domains in Sites.
type WebSearchConfig struct {
	Enabled    bool
	APIKey     string
	EngineID   string
	Endpoint   string
	Sites      []string
	DailyLimit int
}

// AuctionConfig drives the auction-marketplace source, a Finding-style
// commerce search API scoped to a motor-parts category and one regional
// marketplace.
type AuctionConfig struct {
	Enabled     bool
	AppID       string
	Endpoint    string
	Marketplace string
	CategoryID  string
	DailyLimit  int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	MirrorImages    bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "partsearch"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "info"),
		},
		Search: SearchConfig{
			CacheTTL:              getEnvAsInt("SEARCH_CACHE_TTL", 3600),
			DefaultLimit:          getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:              getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			ExternalTimeout:       getEnvAsInt("SEARCH_EXTERNAL_TIMEOUT", 10),
			ExternalBaseRelevance: getEnvAsFloat("SEARCH_EXTERNAL_BASE_RELEVANCE", 0.8),
			CachePurgeInterval:    getEnvAsInt("SEARCH_CACHE_PURGE_INTERVAL", 900),
		},
		Region: RegionConfig{
			Code:     getEnv("REGION_CODE", "SG"),
			Name:     getEnv("REGION_NAME", "Singapore"),
			Currency: getEnv("REGION_CURRENCY", "SGD"),
		},
		Sources: SourcesConfig{
			WebSearch: WebSearchConfig{
				Enabled:    getEnvAsBool("WEBSEARCH_ENABLED", true),
				APIKey:     getEnv("WEBSEARCH_API_KEY", ""),
				EngineID:   getEnv("WEBSEARCH_ENGINE_ID", ""),
				Endpoint:   getEnv("WEBSEARCH_ENDPOINT", "https://www.googleapis.com/customsearch/v1"),
				Sites:      getEnvAsSlice("WEBSEARCH_SITES", []string{"lazada.sg", "shopee.sg", "carousell.sg", "amazon.sg"}),
				DailyLimit: getEnvAsInt("WEBSEARCH_DAILY_LIMIT", 100),
			},
			Auction: AuctionConfig{
				Enabled:     getEnvAsBool("AUCTION_ENABLED", true),
				AppID:       getEnv("AUCTION_APP_ID", ""),
				Endpoint:    getEnv("AUCTION_ENDPOINT", "https://svcs.ebay.com/services/search/FindingService/v1"),
				Marketplace: getEnv("AUCTION_MARKETPLACE", "EBAY-SG"),
				CategoryID:  getEnv("AUCTION_CATEGORY_ID", "6000"),
				DailyLimit:  getEnvAsInt("AUCTION_DAILY_LIMIT", 5000),
			},
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "partsearch-part-images"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			MirrorImages:    getEnvAsBool("IMAGE_MIRROR_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT (%d) exceeds SEARCH_MAX_LIMIT (%d)", c.Search.DefaultLimit, c.Search.MaxLimit)
	}

	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
