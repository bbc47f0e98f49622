// Package config loads airlock configuration from environment variables,
// optionally overlaid by a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/airlock-labs/airlock/pkg/airlock"
	"github.com/airlock-labs/airlock/pkg/contracts"
)

// Telemetry configures the OpenTelemetry exporters.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Config holds the queue configuration. Identities are hex strings and
// durations Go duration strings; both are parsed by Engine.
type Config struct {
	Admin        string    `yaml:"admin"`
	Avatar       string    `yaml:"avatar"`
	Target       string    `yaml:"target"`
	Cooldown     string    `yaml:"cooldown"`
	Expiration   string    `yaml:"expiration"`
	DatabasePath string    `yaml:"database_path"`
	Telemetry    Telemetry `yaml:"telemetry"`
}

// Load reads configuration from environment variables.
func Load() *Config {
	cooldown := os.Getenv("AIRLOCK_COOLDOWN")
	if cooldown == "" {
		cooldown = "0s"
	}

	expiration := os.Getenv("AIRLOCK_EXPIRATION")
	if expiration == "" {
		expiration = "0s"
	}

	endpoint := os.Getenv("AIRLOCK_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	return &Config{
		Admin:        os.Getenv("AIRLOCK_ADMIN"),
		Avatar:       os.Getenv("AIRLOCK_AVATAR"),
		Target:       os.Getenv("AIRLOCK_TARGET"),
		Cooldown:     cooldown,
		Expiration:   expiration,
		DatabasePath: os.Getenv("AIRLOCK_DB_PATH"),
		Telemetry: Telemetry{
			Enabled:  os.Getenv("AIRLOCK_TELEMETRY") == "true",
			Endpoint: endpoint,
			Insecure: os.Getenv("AIRLOCK_OTLP_INSECURE") == "true",
		},
	}
}

// LoadFile reads a YAML configuration file over the environment defaults:
// file values win wherever both are set.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// Engine parses the identity and duration fields into an engine
// configuration. Range validation (null identities, the expiration floor)
// is left to airlock.New.
func (c *Config) Engine() (airlock.Config, error) {
	var out airlock.Config
	var err error

	if out.Admin, err = contracts.ParseAddress(c.Admin); err != nil {
		return airlock.Config{}, fmt.Errorf("config: admin: %w", err)
	}
	if out.Avatar, err = contracts.ParseAddress(c.Avatar); err != nil {
		return airlock.Config{}, fmt.Errorf("config: avatar: %w", err)
	}
	if out.Target, err = contracts.ParseAddress(c.Target); err != nil {
		return airlock.Config{}, fmt.Errorf("config: target: %w", err)
	}
	if out.Cooldown, err = time.ParseDuration(c.Cooldown); err != nil {
		return airlock.Config{}, fmt.Errorf("config: cooldown: %w", err)
	}
	if out.Expiration, err = time.ParseDuration(c.Expiration); err != nil {
		return airlock.Config{}, fmt.Errorf("config: expiration: %w", err)
	}
	return out, nil
}
