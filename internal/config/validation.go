package config

import (
	"fmt"
	"time"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// ValidateConfig checks structural constraints after normalization and
// defaults. All failures are fatal configuration errors.
func ValidateConfig(cfg *Config) error {
	seen := make(map[string]int, len(cfg.Plugins))
	for i, p := range cfg.Plugins {
		if p.Name == "" {
			return rgerrors.ValidationFailed(fmt.Sprintf("plugins[%d].name", i), "instance name is required")
		}
		if prev, dup := seen[p.Name]; dup {
			return rgerrors.ValidationFailed(fmt.Sprintf("plugins[%d].name", i),
				fmt.Sprintf("duplicate instance name %q (already declared at plugins[%d])", p.Name, prev))
		}
		seen[p.Name] = i
	}

	if err := validateDuration("watch.debounce", cfg.Watch.Debounce); err != nil {
		return err
	}
	if cfg.Watch.Interval != "" {
		if err := validateDuration("watch.interval", cfg.Watch.Interval); err != nil {
			return err
		}
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return rgerrors.ValidationFailed("history.path", "required when history is enabled")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return rgerrors.ValidationFailed("metrics.addr", "required when metrics are enabled")
	}
	if cfg.Notify.Enabled && cfg.Notify.URL == "" {
		return rgerrors.ValidationFailed("notify.url", "required when notifications are enabled")
	}
	return nil
}

func validateDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return rgerrors.ValidationFailed(field, fmt.Sprintf("invalid duration %q", value))
	}
	if d < 0 {
		return rgerrors.ValidationFailed(field, "duration must not be negative")
	}
	return nil
}
