package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vibast-solutions/ms-go-reservations/app/lock"
)

const (
	LockBackendRedis = "redis"
	LockBackendMySQL = "mysql"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MySQLDSN     string
	MySQLMaxOpen int
	MySQLMaxIdle int
	MySQLMaxLife time.Duration

	Lock               lock.Config
	LockBackend        string
	LeasePurgeInterval time.Duration

	LogLevel  string
	LogFormat string

	NotifierProvider string
	AWSRegion        string
	SESSourceEmail   string
}

// Load reads the configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MySQLDSN: getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/reservations?parseTime=true"),

		LockBackend: strings.ToLower(getEnv("LOCK_BACKEND", LockBackendRedis)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		NotifierProvider: strings.ToLower(getEnv("NOTIFIER_PROVIDER", "noop")),
		AWSRegion:        getEnv("AWS_REGION", "eu-west-1"),
		SESSourceEmail:   getEnv("SES_SOURCE_EMAIL", ""),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MySQLMaxOpen, err = getEnvInt("MYSQL_MAX_OPEN_CONNS", 20); err != nil {
		return nil, err
	}
	if cfg.MySQLMaxIdle, err = getEnvInt("MYSQL_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.MySQLMaxLife, err = getEnvDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LeasePurgeInterval, err = getEnvDuration("LOCK_PURGE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Lock, err = loadLockConfig(); err != nil {
		return nil, err
	}

	switch cfg.LockBackend {
	case LockBackendRedis, LockBackendMySQL:
	default:
		return nil, fmt.Errorf("unsupported LOCK_BACKEND: %s", cfg.LockBackend)
	}
	return cfg, nil
}

func loadLockConfig() (lock.Config, error) {
	cfg := lock.DefaultConfig()
	cfg.KeyPrefix = getEnv("LOCK_KEY_PREFIX", lock.DefaultKeyPrefix)

	var err error
	if cfg.WatchdogTTL, err = getEnvDuration("LOCK_WATCHDOG_TTL", lock.DefaultWatchdogTTL); err != nil {
		return cfg, err
	}
	if cfg.RenewRatio, err = getEnvInt("LOCK_RENEW_RATIO", lock.DefaultRenewRatio); err != nil {
		return cfg, err
	}
	if cfg.RetryInterval, err = getEnvDuration("LOCK_RETRY_INTERVAL", lock.DefaultRetryInterval); err != nil {
		return cfg, err
	}
	if cfg.RetryJitter, err = getEnvDuration("LOCK_RETRY_JITTER", lock.DefaultRetryJitter); err != nil {
		return cfg, err
	}
	if cfg.AcquireTimeout, err = getEnvDuration("LOCK_ACQUIRE_TIMEOUT", lock.DefaultAcquireTimeout); err != nil {
		return cfg, err
	}
	if cfg.Fair, err = getEnvBool("LOCK_FAIR", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
