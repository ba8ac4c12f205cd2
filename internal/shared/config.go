package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

type Config struct {
	AppEnv       string
	LogLevel     string
	HTTPAddr     string
	MetricsAddr  string
	StoreBackend string
	SQLitePath   string
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	RecommendURL string
	OverpassURL  string
	CacheTTL     time.Duration
	SingleWriter bool
	RequestRPS   int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		LogLevel:     env("LOG_LEVEL", "info"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ":9100"),
		StoreBackend: strings.ToLower(env("STORE_BACKEND", BackendSQLite)),
		SQLitePath:   env("SQLITE_PATH", "recotrip.db"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/recotrip?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		RecommendURL: env("RECOMMEND_BASE_URL", ""),
		OverpassURL:  env("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SingleWriter: envBool("SINGLE_WRITER", false),
		RequestRPS:   atoi("REQUEST_RPS", 5),
	}
	if c.RecommendURL == "" {
		log.Warn().Msg("RECOMMEND_BASE_URL is empty; recommendation routes are disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
		return def
	}
	return b
}
