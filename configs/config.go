package configs

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv          string
	ServerPort      string
	RedisAddr       string
	RedisDB         int
	NumberOfWorkers int
	RunDelay        time.Duration
	GradeDelay      time.Duration
	ExecTimeout     time.Duration
	AcceptRate      float64
	JWTSecret       string
	SessionTTL      time.Duration
	RunCacheTTL     time.Duration
	CatalogPath     string
	AllowedOrigins  []string
}

// LoadConfig reads the process environment, loading a .env file first when
// one exists. Unset values fall back to the demo defaults.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("Error loading .env file", err)
	}

	return &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		NumberOfWorkers: getEnvInt("NUM_OF_WORKERS", 2),
		RunDelay:        getEnvDuration("RUN_DELAY", 2*time.Second),
		GradeDelay:      getEnvDuration("GRADE_DELAY", 2*time.Second),
		ExecTimeout:     getEnvDuration("EXEC_TIMEOUT", 2*time.Second),
		AcceptRate:      getEnvFloat("ACCEPT_RATE", 0.7),
		JWTSecret:       getEnv("JWT_SECRET", "codepad-dev-secret"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 2*time.Hour),
		RunCacheTTL:     getEnvDuration("RUN_CACHE_TTL", 10*time.Minute),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
