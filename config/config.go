// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	SeedBackend    string `validate:"omitempty,oneof=json yaml sqlite postgres mongo memory"`
	SeedPath       string `validate:"required_if=SeedBackend json,required_if=SeedBackend yaml,required_if=SeedBackend sqlite"`
	SeedDSN        string `validate:"required_if=SeedBackend postgres,required_if=SeedBackend mongo"`
	SeedDatabase   string `validate:"required_if=SeedBackend mongo"`
	SeedCollection string `validate:"required_if=SeedBackend mongo"`

	AllowedOrigins []string `validate:"dive,required"`

	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit      float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`

	Debug   bool
	LogFile string
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	port, err := strconv.Atoi(env("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	rate, err := strconv.ParseFloat(env("RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(env("RATE_LIMIT_BURST", "0"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	debug, err := strconv.ParseBool(env("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(env("ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Host:           env("HOST", "0.0.0.0"),
		Port:           port,
		SeedBackend:    env("SEED_BACKEND", "json"),
		SeedPath:       env("SEED_PATH", "./data/movies.json"),
		SeedDSN:        os.Getenv("SEED_DSN"),
		SeedDatabase:   os.Getenv("SEED_DATABASE"),
		SeedCollection: os.Getenv("SEED_COLLECTION"),
		AllowedOrigins: origins,
		RateLimit:      rate,
		RateLimitBurst: burst,
		Debug:          debug,
		LogFile:        os.Getenv("LOG_FILE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
