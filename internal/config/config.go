// Package config loads the environment-driven configuration shared by the
// server and worker binaries.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every environment-sourced setting needed to run either the
// server or the worker. Each binary's loader fills in the shared fields plus
// those of its own role; the other role's fields are left at their zero
// values.
type Config struct {
	DatabaseURL string
	ServerSecret string

	ServerBind       string
	ServerRoot       string
	ServerSSLKeyPath string
	ServerSSLChain   string

	WorkerPollInterval time.Duration

	Version   string
	ReleaseID string
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required environment variable %s", key)
	}
	return value, nil
}

// LoadServerConfig reads the configuration required by `automaat server`.
func LoadServerConfig() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	cfg.ServerBind = getEnv("SERVER_BIND", "0.0.0.0:8000")
	cfg.ServerRoot = getEnv("SERVER_ROOT", "/public")
	cfg.ServerSSLKeyPath = getEnv("SERVER_SSL_KEY_PATH", "")
	cfg.ServerSSLChain = getEnv("SERVER_SSL_CHAIN_PATH", "")
	cfg.Version = getEnv("AUTOMAAT_VERSION", "dev")
	cfg.ReleaseID = getEnv("AUTOMAAT_RELEASE_ID", "unknown")

	return cfg, nil
}

// LoadWorkerConfig reads the configuration required by `automaat worker`.
func LoadWorkerConfig() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	cfg.WorkerPollInterval = 100 * time.Millisecond
	return cfg, nil
}

func loadCommon() (*Config, error) {
	databaseURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	serverSecret, err := requireEnv("SERVER_SECRET")
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:  databaseURL,
		ServerSecret: serverSecret,
	}, nil
}
