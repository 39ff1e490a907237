// Package config loads server configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the server configuration.
type Config struct {
	// IsProd switches logging to production mode.
	IsProd bool
	// Listen is the HTTP listen address.
	Listen string
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// AuthEnabled gates the API behind bearer tokens. When false the
	// middleware is a pass-through and every session resolves manually.
	AuthEnabled bool
	// AuthSecret is the HS256 signing secret for bearer tokens.
	AuthSecret string

	// Analyzer selects the analysis backend: "lexicon" or "ollama".
	Analyzer string
	// OllamaURL and OllamaModel configure the ollama backend.
	OllamaURL   string
	OllamaModel string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Listen:      ":8080",
		Analyzer:    "lexicon",
		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama3.2",
	}

	if mode, ok := os.LookupEnv("MODE"); ok {
		cfg.IsProd = strings.HasPrefix(strings.ToLower(mode), "p")
	}
	if listen, ok := os.LookupEnv("LISTEN"); ok {
		cfg.Listen = listen
	}

	dbURL, ok := os.LookupEnv("DATABASE_URL")
	if !ok {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	cfg.DatabaseURL = dbURL

	if v, ok := os.LookupEnv("AUTH_ENABLED"); ok {
		cfg.AuthEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if cfg.AuthEnabled {
		secret, ok := os.LookupEnv("AUTH_SECRET")
		if !ok {
			return nil, fmt.Errorf("AUTH_SECRET environment variable not set (required when AUTH_ENABLED)")
		}
		cfg.AuthSecret = secret
	}

	if v, ok := os.LookupEnv("ANALYZER"); ok {
		switch v {
		case "lexicon", "ollama":
			cfg.Analyzer = v
		default:
			return nil, fmt.Errorf("unknown ANALYZER %q (want lexicon or ollama)", v)
		}
	}
	if v, ok := os.LookupEnv("OLLAMA_URL"); ok {
		cfg.OllamaURL = v
	}
	if v, ok := os.LookupEnv("OLLAMA_MODEL"); ok {
		cfg.OllamaModel = v
	}

	return cfg, nil
}
