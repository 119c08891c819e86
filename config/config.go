// Package config reads the process configuration once at startup.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultFairScaleAPIURL   = "https://api.fairscale.xyz/score"
	DefaultListenAddr        = ":5200"
	DefaultReconcileInterval = 10 * time.Minute
	DefaultScoreTimeout      = 10 * time.Second
)

// Config fields without a matching variable keep the value they had before
// processing, so defaults are seeded from the Default* constants.
type Config struct {
	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	FairScaleAPIKey   string        `envconfig:"FAIRSCALE_API_KEY"`
	FairScaleAPIURL   string        `envconfig:"FAIRSCALE_API_URL"`
	ListenAddr        string        `envconfig:"LISTEN_ADDR"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL"`
	ScoreTimeout      time.Duration `envconfig:"SCORE_TIMEOUT"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := Config{
		FairScaleAPIURL:   DefaultFairScaleAPIURL,
		ListenAddr:        DefaultListenAddr,
		ReconcileInterval: DefaultReconcileInterval,
		ScoreTimeout:      DefaultScoreTimeout,
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}
