package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the optional yaml config. Anything not set falls back to
// environment variables, then to defaults.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		// "postgres" or "memory"
		Mode string `yaml:"mode"`
	} `yaml:"storage"`
	Broadcast struct {
		// "nats" or "log"
		Mode    string `yaml:"mode"`
		NATSURL string `yaml:"nats_url"`
	} `yaml:"broadcast"`
	Sweep struct {
		IntervalMinutes int `yaml:"interval_minutes"`
	} `yaml:"sweep"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if config.Server.Addr == "" {
		config.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	}
	if config.Storage.Mode == "" {
		config.Storage.Mode = getEnv("STORAGE_MODE", "postgres")
	}
	if config.Broadcast.Mode == "" {
		config.Broadcast.Mode = getEnv("BROADCAST_MODE", "nats")
	}
	if config.Broadcast.NATSURL == "" {
		config.Broadcast.NATSURL = getEnv("NATS_URL", "nats://localhost:4222")
	}
	if config.Sweep.IntervalMinutes == 0 {
		config.Sweep.IntervalMinutes = getEnvAsInt("SWEEP_INTERVAL_MINUTES", 5)
	}
	if config.Sweep.IntervalMinutes < 1 {
		return nil, fmt.Errorf("invalid sweep interval: %d minutes", config.Sweep.IntervalMinutes)
	}

	switch config.Storage.Mode {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("invalid storage mode: %s", config.Storage.Mode)
	}
	switch config.Broadcast.Mode {
	case "nats", "log":
	default:
		return nil, fmt.Errorf("invalid broadcast mode: %s", config.Broadcast.Mode)
	}

	return &config, nil
}
