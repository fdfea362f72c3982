package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Entities == nil {
		cfg.Entities = map[string]int64{}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Rust.ServerIP == "" {
		errs = append(errs, errors.New("rust.server_ip is required"))
	}
	if cfg.Rust.ServerPort <= 0 || cfg.Rust.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("rust.server_port %d is out of range [1, 65535]", cfg.Rust.ServerPort))
	}
	if cfg.Rust.PlayerID == 0 {
		errs = append(errs, errors.New("rust.player_id is required — run the pairing flow to obtain it"))
	}
	if cfg.Rust.PlayerToken == 0 {
		errs = append(errs, errors.New("rust.player_token is required — run the pairing flow to obtain it"))
	} else if cfg.Rust.PlayerToken < math.MinInt32 || cfg.Rust.PlayerToken > math.MaxInt32 {
		// Pairing tokens are signed 32-bit; anything wider is a paste error.
		errs = append(errs, fmt.Errorf("rust.player_token %d is out of int32 range", cfg.Rust.PlayerToken))
	}

	if len(cfg.Entities) == 0 {
		slog.Warn("no entities configured; entity and tc endpoints will reject every name")
	}
	for name, id := range cfg.Entities {
		if name == "" {
			errs = append(errs, errors.New("entities: empty entity name"))
		}
		if id == 0 {
			slog.Warn("entity id is 0 — fill it in before use", "entity", name)
		}
	}

	return errors.Join(errs...)
}
