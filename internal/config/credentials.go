package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the account credentials.
const (
	EnvUsername = "SHARESAVE_USERNAME"
	EnvPassword = "SHARESAVE_PASSWORD"
)

// Credentials identify the 189 Cloud account that receives the share.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// LoadCredentials reads credentials from the process environment after
// loading envFiles (".env" when none given). Missing env files are ignored;
// variables already set in the environment win over file values.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Credentials{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Credentials{
		Username: getEnv(EnvUsername, ""),
		Password: getEnv(EnvPassword, ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
