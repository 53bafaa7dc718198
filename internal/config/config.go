package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis; empty disables caching
	RedisURL string

	// Server
	Port        string
	Environment string
	CORSOrigins []string

	// JWT
	JWTSecret string

	// Messaging; empty disables events and the translation relay
	NATSURL string

	// Search; empty falls back to database search
	ElasticsearchURL    string
	ElasticsearchPrefix string
	SearchRateLimit     float64
	SearchRateBurst     int

	// Basket service
	BasketServiceURL     string
	BasketServiceTimeout time.Duration

	// ERP sync; empty disables the worker
	ETLServiceURL   string
	ETLSyncInterval time.Duration
	ETLRateLimit    float64

	// Languages
	DefaultLanguage    string
	SupportedLanguages []string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Caching
	FacetsCacheTTL time.Duration

	// Discounts
	DiscountSweepInterval time.Duration
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "10"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	searchRateLimit, _ := strconv.ParseFloat(getEnv("SEARCH_RATE_LIMIT", "10"), 64)
	searchRateBurst, _ := strconv.Atoi(getEnv("SEARCH_RATE_BURST", "20"))
	etlRateLimit, _ := strconv.ParseFloat(getEnv("ETL_RATE_LIMIT", "2"), 64)

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getList("CORS_ORIGINS", "*"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),

		NATSURL: getEnv("NATS_URL", ""),

		// Search
		ElasticsearchURL:    getEnv("ELASTICSEARCH_URL", ""),
		ElasticsearchPrefix: getEnv("ELASTICSEARCH_INDEX_PREFIX", "catalog"),
		SearchRateLimit:     searchRateLimit,
		SearchRateBurst:     searchRateBurst,

		// Basket service
		BasketServiceURL:     getEnv("BASKET_SERVICE_URL", "http://localhost:8001"),
		BasketServiceTimeout: getDuration("BASKET_SERVICE_TIMEOUT", 10*time.Second),

		// ERP sync
		ETLServiceURL:   getEnv("ETL_SERVICE_URL", ""),
		ETLSyncInterval: getDuration("ETL_SYNC_INTERVAL", 30*time.Minute),
		ETLRateLimit:    etlRateLimit,

		// Languages
		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "ru"),
		SupportedLanguages: getList("SUPPORTED_LANGUAGES", "ru,en,kz"),

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,

		FacetsCacheTTL:        getDuration("FACETS_CACHE_TTL", 15*time.Minute),
		DiscountSweepInterval: getDuration("DISCOUNT_SWEEP_INTERVAL", 10*time.Minute),
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Running auto-migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

// Migrate brings the schema up to date. Errors about dropping constraints
// that no longer exist are tolerated.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
			return nil
		}
		return fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

// getList splits a comma separated variable, dropping empty items.
func getList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
