package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the AI Textbook API.
// It can be overridden with the AITB_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("AITB_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// tokenPath returns the location of the stored bearer token (~/.config/aitb/token).
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "aitb", "token"), nil
}

// SaveToken stores the bearer token locally with owner-only permissions.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// LoadToken reads the stored bearer token. Returns an error with a login hint
// when no token has been saved yet.
func LoadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no stored token; run \"aitb login\" first")
		}
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", fmt.Errorf("stored token is empty; run \"aitb login\" again")
	}
	return token, nil
}
