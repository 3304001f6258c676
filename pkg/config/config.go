package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full runtime configuration, populated from the process
// environment with an optional .env overlay for local development.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig tunes the instructor dashboard cache.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	ResultTTL         time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

var defaults = map[string]any{
	"ENV":                        EnvDevelopment,
	"PORT":                       8080,
	"API_PREFIX":                 "/api/v1",
	"DB_HOST":                    "localhost",
	"DB_PORT":                    5432,
	"DB_USER":                    "postgres",
	"DB_NAME":                    "workload",
	"DB_SSL_MODE":                "disable",
	"DB_MAX_OPEN_CONNS":          25,
	"DB_MAX_IDLE_CONNS":          5,
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 6379,
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"ENABLE_DASHBOARD":           true,
	"REPORTS_STORAGE_DIR":        "./data/reports",
	"REPORTS_WORKER_CONCURRENCY": 2,
	"REPORTS_WORKER_RETRIES":     3,
}

// Load reads configuration from the environment. A missing .env file is
// fine; a malformed one is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database:  databaseSection(v),
		Redis:     redisSection(v),
		JWT:       jwtSection(v),
		CORS:      CORSConfig{AllowedOrigins: csv(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Dashboard: DashboardConfig{
			Enabled:  v.GetBool("ENABLE_DASHBOARD"),
			CacheTTL: duration(v, "DASHBOARD_CACHE_TTL", 5*time.Minute),
		},
		Reports: reportsSection(v),
	}, nil
}

func databaseSection(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func redisSection(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func jwtSection(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        duration(v, "JWT_EXPIRATION", 24*time.Hour),
		RefreshExpiration: duration(v, "REFRESH_TOKEN_EXPIRATION", 7*24*time.Hour),
	}
}

func reportsSection(v *viper.Viper) ReportsConfig {
	return ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      duration(v, "REPORTS_SIGNED_URL_TTL", 24*time.Hour),
		ResultTTL:         duration(v, "REPORTS_RESULT_TTL", 24*time.Hour),
		CleanupInterval:   duration(v, "REPORTS_CLEANUP_INTERVAL", time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}
}

// duration reads a Go duration string, falling back when the variable is
// unset or unparseable.
func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// csv splits a comma-separated list, dropping empty entries.
func csv(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
