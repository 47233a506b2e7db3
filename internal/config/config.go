package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	NodeID      int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// CartLockTTL is the lease of a Redis cart lock. A held lock is renewed
	// every third of it.
	CartLockTTL time.Duration
	// CartStoreTTL expires idle carts kept in Redis. Zero keeps them forever.
	CartStoreTTL time.Duration

	// ConditionCatalogPath points at a YAML file of conditions seeded at startup.
	ConditionCatalogPath string
	// ConditionCacheTTL bounds how long active global conditions are reused
	// between reads. Zero disables the cache.
	ConditionCacheTTL time.Duration
	// CartConfigPaths are searched for cart.yml, first match wins.
	CartConfigPaths []string
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewCartConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:              getenv("APP_SERVICE", "cartsync"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		NodeID:               getenvInt64("NODE_ID", 1),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:               getenv("DATABASE_TYPE", "postgres"),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "postgres"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:        int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:        int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime:    int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime:    int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		DBAutoMigrate:        getenvBool("DATABASE_AUTO_MIGRATE", true),
		RedisAddr:            strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		RedisDB:              int(getenvInt64("REDIS_DB", 0)),
		CartLockTTL:          time.Duration(getenvInt64("CART_LOCK_TTL", 10)) * time.Second,
		CartStoreTTL:         time.Duration(getenvInt64("CART_STORE_TTL", 0)) * time.Second,
		ConditionCatalogPath: strings.TrimSpace(getenv("CONDITION_CATALOG_PATH", "")),
		ConditionCacheTTL:    time.Duration(getenvInt64("CONDITION_CACHE_TTL", 30)) * time.Second,
		CartConfigPaths:      parseList(getenv("CART_CONFIG_PATHS", "/etc/cartsync,.")),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
