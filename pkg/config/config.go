package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"handcraft/pkg/logger"
)

type Config struct {
	Port        string
	Environment string

	FirebaseProjectID      string
	FirebaseCredentialFile string
	FirebaseAPIKey         string

	// Store selects the persistence backend: "firestore" or "memory".
	// Memory is for local development and tests.
	Store string

	ResetTokenSecret string
	ResetTokenTTL    time.Duration
	OTPTTL           time.Duration

	ChatMessageRateLimit  int
	ChatMessageRateWindow time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		FirebaseProjectID:      getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./firebase-credentials.json"),
		FirebaseAPIKey:         getEnv("FIREBASE_API_KEY", ""),
		Store:                  getEnv("STORE", "firestore"),
		ResetTokenSecret:       getEnv("RESET_TOKEN_SECRET", "dev-reset-secret"),
		ResetTokenTTL:          getEnvAsDuration("RESET_TOKEN_TTL", 15*time.Minute),
		OTPTTL:                 getEnvAsDuration("OTP_TTL", 10*time.Minute),
		ChatMessageRateLimit:   getEnvAsInt("CHAT_MESSAGE_RATE_LIMIT", 20),
		ChatMessageRateWindow:  getEnvAsDuration("CHAT_MESSAGE_RATE_WINDOW", time.Minute),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logger.Warn("invalid int for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		logger.Warn("invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}
