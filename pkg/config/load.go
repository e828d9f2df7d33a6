package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Unknown fields are rejected. After parsing it resolves ENV[NAME]
// indirection for the OIDC client credentials, applies defaults, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration file %q: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes, defaults, and validates a raw YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := resolveEnvIndirection(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// resolveEnvIndirection replaces ENV[NAME] values in the OIDC client
// credentials with the named environment variable's value.
func resolveEnvIndirection(cfg *Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"openid.client_id", &cfg.OpenID.ClientID},
		{"openid.client_secret", &cfg.OpenID.ClientSecret},
	}

	for _, f := range fields {
		key, ok := envKey(*f.value)
		if !ok {
			continue
		}

		value, ok := os.LookupEnv(key)
		if !ok {
			return fmt.Errorf("%s: environment variable %q is not set", f.name, key)
		}
		*f.value = value
	}

	return nil
}

// envKey extracts NAME from a value of the form ENV[NAME].
func envKey(value string) (string, bool) {
	rest, ok := strings.CutPrefix(value, "ENV[")
	if !ok {
		return "", false
	}
	key, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return "", false
	}
	return key, true
}
