package main

import (
	"os"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Values come from config.yaml when
// present, with environment variables taking precedence.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Bootstrap struct {
		// RunWorker embeds the bootstrap worker in this process instead
		// of requiring the standalone binary.
		RunWorker bool `yaml:"run_worker"`
	} `yaml:"bootstrap"`
}

func loadConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.NATS.URL = nats.DefaultURL
	cfg.Bootstrap.RunWorker = true

	path := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to parse config file")
		}
		log.Info().Str("path", path).Msg("loaded config file")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if v := os.Getenv("BOOTSTRAP_RUN_WORKER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bootstrap.RunWorker = b
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
