// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caretone/intake-core/core/realtime"
	"github.com/caretone/intake-core/core/tools"
)

// Config carries every runtime knob. Values come from the environment;
// everything but the API key has a working default.
type Config struct {
	// APIKey authenticates against the agent API (OPENAI_API_KEY).
	APIKey string

	// RealtimeURL is the websocket endpoint for agent sessions.
	RealtimeURL string
	// ClientSecretsURL mints ephemeral keys for media frontends.
	ClientSecretsURL string
	// Model and Voice select the agent model and audio voice.
	Model string
	Voice string

	// Addr is the HTTP server listen address.
	Addr string
	// OutputDir receives completed call documents.
	OutputDir string
	// StaticDir holds the frontend assets the server exposes.
	StaticDir string

	// ShutdownGracePeriod bounds in-flight work during shutdown.
	ShutdownGracePeriod time.Duration
}

// FromEnv reads configuration from environment variables, applying
// defaults for everything optional. The API key is required.
func FromEnv() (Config, error) {
	grace, err := envDurationOr("INTAKE_SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIKey:              strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RealtimeURL:         envOr("INTAKE_REALTIME_URL", realtime.DefaultURL),
		ClientSecretsURL:    envOr("INTAKE_CLIENT_SECRETS_URL", "https://api.openai.com/v1/realtime/client_secrets"),
		Model:               envOr("INTAKE_MODEL", realtime.DefaultModel),
		Voice:               envOr("INTAKE_VOICE", realtime.DefaultVoice),
		Addr:                envOr("INTAKE_ADDR", ":8084"),
		OutputDir:           envOr("INTAKE_OUTPUT_DIR", "output"),
		StaticDir:           envOr("INTAKE_STATIC_DIR", "static"),
		ShutdownGracePeriod: grace,
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("INTAKE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	return cfg, nil
}

// Realtime builds the channel configuration for one call.
func (c Config) Realtime(instructions string, defs []tools.Definition) realtime.Config {
	return realtime.Config{
		URL:          c.RealtimeURL,
		Model:        c.Model,
		APIKey:       c.APIKey,
		Voice:        c.Voice,
		Instructions: instructions,
		Tools:        defs,
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDurationOr(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	return d, nil
}
