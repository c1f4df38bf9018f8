package config

import (
	"os"
	"path/filepath"
	"time"
)

// ClientConfig holds settings for the fintrack CLI.
type ClientConfig struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	SessionPath    string
}

// LoadClientConfig constructs a ClientConfig from environment variables.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		APIBaseURL:     GetString("FINTRACK_API", ""),
		RequestTimeout: GetDuration("FINTRACK_TIMEOUT", 15*time.Second),
		SessionPath:    GetString("FINTRACK_SESSION", defaultSessionPath()),
	}
}

func defaultSessionPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".fintrack", "session.json")
	}
	return filepath.Join(base, "fintrack", "session.json")
}
