package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles reads .env, then .env.<ENV>, then .env.local. Missing files
// are skipped. A later file overrides an earlier one, and variables already
// in the process environment override every file.
func loadEnvFiles() error {
	files := []string{".env"}

	env := os.Getenv("ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env != "" {
		files = append(files, fmt.Sprintf(".env.%s", env))
	}
	files = append(files, ".env.local")

	merged := make(map[string]string)
	for _, name := range files {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		values, err := godotenv.Read(name)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		for key, value := range values {
			merged[key] = value
		}
	}

	for key, value := range merged {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}
