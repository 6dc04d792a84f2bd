package config

// Defaults applied after normalization. A config with nothing but a version
// line still produces a working build: one text readme in the build output.
func applyDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./build"
	}

	if len(cfg.Plugins) == 0 {
		cfg.Plugins = []PluginConfig{{Name: "Readme", Family: "readme"}}
	}
	for i := range cfg.Plugins {
		if cfg.Plugins[i].Family == "" {
			cfg.Plugins[i].Family = "readme"
		}
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "500ms"
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = "./readmegen-history.db"
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr == "" {
			cfg.Metrics.Addr = ":9090"
		}
		if cfg.Metrics.Path == "" {
			cfg.Metrics.Path = "/metrics"
		}
	}

	if cfg.Notify.Enabled {
		if cfg.Notify.URL == "" {
			cfg.Notify.URL = "nats://127.0.0.1:4222"
		}
		if cfg.Notify.Subject == "" {
			cfg.Notify.Subject = "readmegen"
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
