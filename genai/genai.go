// Package genai is the text-generation collaborator for the memory
// engine: a single-turn prompt-in, text-out contract plus the typed
// coaching operations built on it. Providers are swappable behind
// Generator; the Anthropic client is the shipped implementation.
package genai

import (
	"context"
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrNotConfigured indicates no provider credentials were supplied.
	ErrNotConfigured = errors.New("genai: no provider configured")

	// ErrMalformedOutput indicates the model's response did not contain
	// the JSON object an operation expected.
	ErrMalformedOutput = errors.New("genai: malformed model output")
)

// Generator is the narrow text-generation contract the rest of the
// system depends on: fully-formed prompt in, free text out, no session
// state.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds provider settings, fillable from the environment.
type Config struct {
	APIKey    string        `env:"ANTHROPIC_API_KEY"`
	Model     string        `env:"AETHER_GENAI_MODEL" envDefault:"claude-sonnet-4-20250514"`
	MaxTokens int64         `env:"AETHER_GENAI_MAX_TOKENS" envDefault:"2048"`
	Timeout   time.Duration `env:"AETHER_GENAI_TIMEOUT" envDefault:"30s"`
}

// ConfigFromEnv reads Config from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
