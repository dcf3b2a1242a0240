package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	LogLevel       string
	GeminiAPIKey   string
	GeminiModel    string
	NatsURL        string
	NatsToken      string
	CredentialFile string
}

func Load() Config {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	return Config{
		Port:           envInt("PETAKOM_PORT", 8760),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		GeminiAPIKey:   envStr("GEMINI_API_KEY", ""),
		GeminiModel:    envStr("GEMINI_MODEL", "gemini-2.0-flash"),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		CredentialFile: envStr("PETAKOM_CREDENTIAL_FILE", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
