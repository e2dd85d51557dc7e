package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	AppEnv                   string
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	JWTSecret                string
	TokenTTLMinutes          int
	LogLevel                 string
	LogFormat                string
	DashboardCacheTTLSeconds int
	LiveRefreshSeconds       int
	AutoBackupDays           int
	BackupCheckMinutes       int
}

// Load reads the environment, preloading a .env file from the working
// directory when one exists.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                     getEnv("PORT", "8080"),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		AppEnv:                   strings.ToLower(getEnv("APP_ENV", "development")),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  redisDB,
		JWTSecret:                strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTLMinutes:          positiveInt("TOKEN_TTL_MINUTES", 720),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogFormat:                getEnv("LOG_FORMAT", "console"),
		DashboardCacheTTLSeconds: positiveInt("DASHBOARD_CACHE_TTL_SECONDS", 15),
		LiveRefreshSeconds:       positiveInt("LIVE_REFRESH_SECONDS", 5),
		AutoBackupDays:           nonNegativeInt("AUTO_BACKUP_DAYS", 7),
		BackupCheckMinutes:       positiveInt("BACKUP_CHECK_MINUTES", 60),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTLSeconds) * time.Second
}

func (c Config) LiveRefreshInterval() time.Duration {
	return time.Duration(c.LiveRefreshSeconds) * time.Second
}

// AutoBackupMaxAge is zero when automatic backups are disabled.
func (c Config) AutoBackupMaxAge() time.Duration {
	return time.Duration(c.AutoBackupDays) * 24 * time.Hour
}

func (c Config) BackupCheckInterval() time.Duration {
	return time.Duration(c.BackupCheckMinutes) * time.Minute
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func nonNegativeInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
