package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	AnalyticsSchema string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	RateLimitRPS    int
	QuoteBase       string
	QuoteKey        string
	QuoteRPS        int
	Workers         int
	SnapshotDays    int
	CacheTTL        time.Duration
	LocalCacheTTL   time.Duration
	RequestTimeout  time.Duration
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Real environment variables win over .env.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/revenue?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		AnalyticsSchema: env("ANALYTICS_SCHEMA", "analytics"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		JWTSecret:       env("JWT_SECRET", ""),
		RateLimitRPS:    atoi("RATE_LIMIT_RPS", 50),
		QuoteBase:       env("QUOTE_BASE_URL", "https://distribution-api.booking.example/v2"),
		QuoteKey:        env("QUOTE_API_KEY", ""),
		QuoteRPS:        atoi("QUOTE_RPS", 5),
		Workers:         atoi("COLLECT_WORKERS", 4),
		SnapshotDays:    atoi("COLLECT_DAYS", 30),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		LocalCacheTTL:   time.Duration(atoi("LOCAL_CACHE_TTL_SECONDS", 60)) * time.Second,
		RequestTimeout:  time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
