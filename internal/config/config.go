package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	MarketDataBaseURL   string        `env:"MARKET_DATA_BASE_URL,required"`
	MarketDataTimeout   time.Duration `env:"MARKET_DATA_TIMEOUT,default=10s"`
	MarketDataRateLimit float64       `env:"MARKET_DATA_RATE_LIMIT,default=10"`

	MonitorWorkers  int           `env:"MONITOR_WORKERS,default=4"`
	MonitorInterval time.Duration `env:"MONITOR_INTERVAL,default=30m"`
	SessionOpen     string        `env:"SESSION_OPEN,default=09:00"`
	SessionClose    string        `env:"SESSION_CLOSE,default=15:30"`
	SessionTimezone string        `env:"SESSION_TIMEZONE,default=Asia/Seoul"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL,default=24h"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
