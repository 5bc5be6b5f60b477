package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	AppEnv        string
	BaseURL       string
	StorageKey    string
	LogLevel      string
	Clipboard     string // "system" or "none"
	AllowedOrigin string // CORS origin for the capture endpoint
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found

	port := getEnv("PORT", "8787")
	return &Config{
		Port:          port,
		DatabaseURL:   getEnv("DATABASE_URL", "file:contextkeeper.db"),
		AppEnv:        getEnv("APP_ENV", "local"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:"+port),
		StorageKey:    getEnv("STORAGE_KEY", "snippets"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Clipboard:     getEnv("CLIPBOARD", "system"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
