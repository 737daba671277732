package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	applog "ledctl/internal/log"
)

// Load reads and validates the settings file at path. Unknown top-level
// keys are rejected rather than silently ignored, so a typo'd key fails
// at startup instead of quietly doing nothing.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	applyEnvOverrides()

	return &cfg, nil
}

// applyEnvOverrides applies the single operational override this program
// accepts outside the settings file: log verbosity. Anything that changes
// wire- or ABI-visible behavior belongs in the settings file, not the
// environment.
func applyEnvOverrides() {
	if raw := os.Getenv("LEDCTL_LOG_LEVEL"); raw != "" {
		if level, ok := applog.ParseLevel(raw); ok {
			applog.SetLevel(level)
		} else {
			applog.Warnf("config: ignoring unrecognized LEDCTL_LOG_LEVEL=%q", raw)
		}
	}
}
