package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first readable .env style file. Existing process
// environment variables are not overwritten.
func loadEnvFiles() {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
		return
	}
}
