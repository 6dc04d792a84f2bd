// Package config loads and validates the readmegen configuration file.
// Loading runs in fixed order: env files, environment expansion, YAML
// decoding, normalization, defaults, validation. Canonical values drive the
// defaults, so normalization must come first.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Version is the configuration format version this build understands.
const Version = "1.0"

// Config is the top-level readmegen configuration.
type Config struct {
	Version string         `yaml:"version"`
	Project ProjectConfig  `yaml:"project"`
	Output  OutputConfig   `yaml:"output"`
	Plugins []PluginConfig `yaml:"plugins,omitempty"`
	Watch   WatchConfig    `yaml:"watch,omitempty"`
	History HistoryConfig  `yaml:"history,omitempty"`
	Metrics MetricsConfig  `yaml:"metrics,omitempty"`
	Notify  NotifyConfig   `yaml:"notify,omitempty"`
	Logging LoggingConfig  `yaml:"logging,omitempty"`
}

// ProjectConfig describes the project whose readme is generated.
type ProjectConfig struct {
	// Name overrides the name detected from the repository.
	Name string `yaml:"name,omitempty"`

	// Version overrides the version detected from git describe.
	Version string `yaml:"version,omitempty"`

	// MainSource is the file whose documentation markup feeds the readme.
	// Left empty, plugin instances fall back to their own default.
	MainSource string `yaml:"main_source,omitempty"`

	// Gather lists additional files (relative to the project root) to load
	// into the build fileset before plugins run.
	Gather []string `yaml:"gather,omitempty"`
}

// OutputConfig describes where build-placed artifacts are written.
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean"` // Clean output directory before writing
}

// PluginConfig declares one plugin instance. The instance name doubles as a
// configuration hint: formats and placements are inferred from it unless
// options say otherwise.
type PluginConfig struct {
	Name    string            `yaml:"name"`
	Family  string            `yaml:"family,omitempty"` // defaults to "readme"
	Options map[string]string `yaml:"options,omitempty"`
}

// WatchConfig controls watch mode. Durations are strings in Go duration
// syntax ("500ms", "2m").
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	Interval string `yaml:"interval,omitempty"` // scheduled rebuilds; empty or 0 disables
}

// DebounceDuration returns the parsed debounce window. Validation has already
// rejected unparseable values.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// IntervalDuration returns the parsed rebuild interval; zero disables
// scheduled rebuilds.
func (w WatchConfig) IntervalDuration() time.Duration {
	if w.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 0
	}
	return d
}

// HistoryConfig controls the build event store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// NotifyConfig controls build event publication over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"` // subject prefix for events
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load reads, normalizes, defaults, and validates a configuration file.
// Normalization warnings are returned alongside the config so the caller can
// log them through its own logger.
func Load(configPath string) (*Config, []string, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil, rgerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, rgerrors.Wrap(err, rgerrors.CategoryConfig, rgerrors.SeverityFatal,
			"failed to read config file").WithContext("path", configPath)
	}

	// Expand ${VAR} references before decoding so secrets stay out of the file.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, nil, rgerrors.Wrap(err, rgerrors.CategoryConfig, rgerrors.SeverityFatal,
			"failed to parse config file").WithContext("path", configPath)
	}

	if cfg.Version != Version {
		return nil, nil, rgerrors.New(rgerrors.CategoryConfig, rgerrors.SeverityFatal,
			fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, Version)).
			WithContext("path", configPath)
	}

	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, res.Warnings, err
	}
	return &cfg, res.Warnings, nil
}

// loadEnvFiles loads .env then .env.local, stopping at the first that
// parses. Existing process environment always wins.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			return
		}
	}
}

// applyEnvOverrides lets READMEGEN_* variables override file settings, so
// CI can redirect output without editing the checked-in config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("READMEGEN_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("READMEGEN_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("READMEGEN_NOTIFY_URL"); v != "" {
		cfg.Notify.URL = v
	}
	if v := os.Getenv("READMEGEN_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("READMEGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return rgerrors.New(rgerrors.CategoryConfig, rgerrors.SeverityFatal,
			"configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath)
	}

	example := Config{
		Version: Version,
		Project: ProjectConfig{
			MainSource: "doc.go",
			Gather:     []string{"CHANGELOG.md"},
		},
		Output: OutputConfig{
			Dir:   "./build",
			Clean: true,
		},
		Plugins: []PluginConfig{
			{Name: "ReadmeMarkdownInBuild"},
			{
				Name:   "ReadmePodInRoot",
				Family: "readme",
				Options: map[string]string{
					"source_filename": "doc.go",
				},
			},
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./readmegen-history.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
		Notify: NotifyConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "readmegen",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return rgerrors.InternalError("failed to marshal example config", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return rgerrors.WriteFailed(configPath, err)
	}
	return nil
}
