package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string
	HTTPAddr     string
	MetricsAddr  string
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	MewsBase     string
	MewsKey      string
	MewsRPS      int
	SyncWorkers  int
	BreakfastTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  env("METRICS_ADDR", ":9100"),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/pms?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisDB:      atoi("REDIS_DB", 0),
		RedisPass:    env("REDIS_PASSWORD", ""),
		MewsBase:     env("MEWS_BASE_URL", "https://api.mews.example/v1"),
		MewsKey:      env("MEWS_API_KEY", ""),
		MewsRPS:      atoi("MEWS_RPS", 5),
		SyncWorkers:  atoi("SYNC_WORKERS", 4),
		BreakfastTTL: time.Duration(atoi("BREAKFAST_TTL_SECONDS", 600)) * time.Second,
	}
	if c.MewsKey == "" {
		log.Warn().Msg("MEWS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
