package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret    string
	Port         string
	DatabasePath string
	LogLevel     string

	// SelfTraderName is the operator's own canonical broker name. It is
	// the distinguished identity used for gap computation and for the
	// lider/oportunidad/rezago classification.
	SelfTraderName string

	// TraderCacheTTL bounds the staleness of the trader/alias list used
	// to build alias directories. Zero disables caching entirely.
	TraderCacheTTL time.Duration

	ReportCacheTTL    time.Duration
	AccessTokenExpiry time.Duration

	// RateLimitBurst is the burst size of the global request limiter.
	RateLimitBurst int
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found. Relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "insecure-development-jwt-secret-key-minimum-32-bytes!!")
	if jwtSecret == "insecure-development-jwt-secret-key-minimum-32-bytes!!" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	Cfg = &AppConfig{
		JWTSecret:         jwtSecret,
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./corretaje.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SelfTraderName:    getEnv("SELF_TRADER_NAME", ""),
		TraderCacheTTL:    getEnvAsDuration("TRADER_CACHE_TTL", 5*time.Minute),
		ReportCacheTTL:    getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 30),
	}

	if Cfg.SelfTraderName == "" {
		log.Println("WARNING: SELF_TRADER_NAME not set. Self-position and gap reports will return no data.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, SelfTrader=%q",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.SelfTraderName)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
