package config

import (
	"fmt"
	"strings"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// NormalizationResult captures adjustments and warnings from the
// normalization pass.
type NormalizationResult struct {
	Warnings []string
}

// NormalizeConfig canonicalizes enumerated fields before defaults apply. It
// mutates the config in place and reports every coercion as a warning.
func NormalizeConfig(cfg *Config) (*NormalizationResult, error) {
	if cfg == nil {
		return nil, rgerrors.InternalError("normalize called with nil config", nil)
	}
	res := &NormalizationResult{}

	if lvl := NormalizeLogLevel(cfg.Logging.Level); lvl != "" {
		if cfg.Logging.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", cfg.Logging.Level, lvl))
			cfg.Logging.Level = lvl
		}
	} else if strings.TrimSpace(cfg.Logging.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", cfg.Logging.Level, "info"))
		cfg.Logging.Level = "info"
	}

	if f := NormalizeLogFormat(cfg.Logging.Format); f != "" {
		if cfg.Logging.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", cfg.Logging.Format, f))
			cfg.Logging.Format = f
		}
	} else if strings.TrimSpace(cfg.Logging.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", cfg.Logging.Format, "text"))
		cfg.Logging.Format = "text"
	}

	for i := range cfg.Plugins {
		p := &cfg.Plugins[i]
		if trimmed := strings.TrimSpace(p.Name); trimmed != p.Name {
			res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("plugins[%d].name", i), p.Name, trimmed))
			p.Name = trimmed
		}
		if lowered := strings.ToLower(strings.TrimSpace(p.Family)); lowered != p.Family {
			res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("plugins[%d].family", i), p.Family, lowered))
			p.Family = lowered
		}
	}

	return res, nil
}

// NormalizeLogLevel maps case-insensitive input to a canonical level,
// returning empty for unknown values.
func NormalizeLogLevel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return "debug"
	case "info":
		return "info"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	default:
		return ""
	}
}

// NormalizeLogFormat maps case-insensitive input to a canonical format,
// returning empty for unknown values.
func NormalizeLogFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return "json"
	case "text":
		return "text"
	default:
		return ""
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
