package app

import (
	"time"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/utils"
)

type Config struct {
	Port           string
	RedisAddr      string
	CacheTTL       time.Duration
	WorkerCount    int
	MaxAttempts    int
	RetryBase      time.Duration
	StaleRunning   time.Duration
	PollInterval   time.Duration
	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cacheTTLSeconds := utils.GetEnvAsInt("RECS_CACHE_TTL_SECONDS", 300, log)
	return Config{
		Port:         utils.GetEnv("PORT", "8080", log),
		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		CacheTTL:     time.Duration(cacheTTLSeconds) * time.Second,
		WorkerCount:  utils.GetEnvAsInt("JOB_WORKERS", 2, log),
		MaxAttempts:  utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 5, log),
		RetryBase:    time.Duration(utils.GetEnvAsInt("JOB_RETRY_BASE_SECONDS", 30, log)) * time.Second,
		StaleRunning: time.Duration(utils.GetEnvAsInt("JOB_STALE_RUNNING_SECONDS", 120, log)) * time.Second,
		PollInterval: time.Duration(utils.GetEnvAsInt("JOB_POLL_INTERVAL_MS", 1000, log)) * time.Millisecond,
		AllowedOrigins: []string{
			utils.GetEnv("CORS_ORIGIN", "http://localhost:3000", log),
		},
	}
}
