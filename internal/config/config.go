package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Order    OrderConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port            int
	RateLimit       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type OrderConfig struct {
	ReservationTimeout time.Duration
	MaxRetryAttempts   int
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	NotifyChannel string
}

type LedgerConfig struct {
	MovementPageSize int
}

type WorkerConfig struct {
	Concurrency int
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverMemory   = "memory"
)

// Load reads configuration from the environment. When CONFIG_FILE is set the
// file is read first and environment variables override it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("HTTP_RATE_LIMIT", 100)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "stockledger")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "stockledger")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ORDER_RESERVATION_TIMEOUT", "5s")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 2)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_CHANNEL", "stockledger:changes")
	v.SetDefault("MOVEMENT_PAGE_SIZE", 100)
	v.SetDefault("WORKER_CONCURRENCY", 5)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	serverTimeouts := make(map[string]time.Duration, 4)
	for _, key := range []string{"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT"} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		serverTimeouts[key] = d
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	reservationTimeout, err := time.ParseDuration(v.GetString("ORDER_RESERVATION_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("parsing ORDER_RESERVATION_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			RateLimit:       v.GetInt("HTTP_RATE_LIMIT"),
			ReadTimeout:     serverTimeouts["SERVER_READ_TIMEOUT"],
			WriteTimeout:    serverTimeouts["SERVER_WRITE_TIMEOUT"],
			IdleTimeout:     serverTimeouts["SERVER_IDLE_TIMEOUT"],
			ShutdownTimeout: serverTimeouts["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Order: OrderConfig{
			ReservationTimeout: reservationTimeout,
			MaxRetryAttempts:   v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			NotifyChannel: v.GetString("NOTIFY_CHANNEL"),
		},
		Ledger: LedgerConfig{
			MovementPageSize: v.GetInt("MOVEMENT_PAGE_SIZE"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Order.MaxRetryAttempts < 1 {
		cfg.Order.MaxRetryAttempts = 1
	}

	return cfg, nil
}
