package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAppName            = "container-playwright-pdf"
	defaultPort               = ":8080"
	defaultTimeoutSecs        = 60
	defaultAcquireTimeoutSecs = 5
	defaultStartupTimeoutSecs = 30
	defaultMaxHTMLBytes       = 10 * 1024 * 1024
	defaultLogLevel           = "info"
)

// Config is the full service configuration, read once at startup. Every
// field has a default so the service runs with no config file at all; a
// YAML file named by CONFIG_PATH and a handful of environment variables
// override the defaults.
type Config struct {
	App struct {
		Name string `yaml:"name"`
	} `yaml:"app"`
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`
	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`
	PDF struct {
		TimeoutSecs        int    `yaml:"timeout_secs"`
		AcquireTimeoutSecs int    `yaml:"acquire_timeout_secs"`
		StartupTimeoutSecs int    `yaml:"startup_timeout_secs"`
		ChromePath         string `yaml:"chrome_path"`
		ChromeNoSandbox    bool   `yaml:"chrome_no_sandbox"`
		UserDataDir        string `yaml:"user_data_dir"`
	} `yaml:"pdf"`
	Limits struct {
		MaxHTMLBytes int `yaml:"max_html_bytes"`
	} `yaml:"limits"`
}

// Load reads the configuration file named by CONFIG_PATH, or just the
// defaults when the variable is unset. Environment overrides are applied
// either way. Panics on values the service cannot run with.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		cfg := defaults()
		applyEnv(&cfg)
		validate(cfg)
		return cfg
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the configuration from the given YAML file.
func LoadFrom(path string) Config {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("cannot read config file %q: %v", path, err))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("cannot parse config file %q: %v", path, err))
	}

	applyEnv(&cfg)
	validate(cfg)
	return cfg
}

func defaults() Config {
	var cfg Config
	cfg.App.Name = defaultAppName
	cfg.Server.Port = defaultPort
	cfg.Logger.Level = defaultLogLevel
	cfg.PDF.TimeoutSecs = defaultTimeoutSecs
	cfg.PDF.AcquireTimeoutSecs = defaultAcquireTimeoutSecs
	cfg.PDF.StartupTimeoutSecs = defaultStartupTimeoutSecs
	cfg.Limits.MaxHTMLBytes = defaultMaxHTMLBytes
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("PDF_TIMEOUT_SECS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Sprintf("PDF_TIMEOUT_SECS is not a number: %q", v))
		}
		cfg.PDF.TimeoutSecs = secs
	}
	// Common container env var for the browser binary location.
	if v := os.Getenv("CHROME_BIN"); v != "" && cfg.PDF.ChromePath == "" {
		cfg.PDF.ChromePath = v
	}
}

func validate(cfg Config) {
	if cfg.PDF.TimeoutSecs <= 0 {
		panic(fmt.Sprintf("pdf.timeout_secs must be positive, got %d", cfg.PDF.TimeoutSecs))
	}
	if cfg.PDF.AcquireTimeoutSecs <= 0 {
		panic(fmt.Sprintf("pdf.acquire_timeout_secs must be positive, got %d", cfg.PDF.AcquireTimeoutSecs))
	}
	if cfg.PDF.StartupTimeoutSecs <= 0 {
		panic(fmt.Sprintf("pdf.startup_timeout_secs must be positive, got %d", cfg.PDF.StartupTimeoutSecs))
	}
	if cfg.Limits.MaxHTMLBytes <= 0 {
		panic(fmt.Sprintf("limits.max_html_bytes must be positive, got %d", cfg.Limits.MaxHTMLBytes))
	}
}

// RenderTimeout is the per-request render deadline.
func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.PDF.TimeoutSecs) * time.Second
}

// AcquireTimeout bounds browsing-context checkout. Kept short so a dead
// browser fails fast instead of eating the whole render budget.
func (c Config) AcquireTimeout() time.Duration {
	return time.Duration(c.PDF.AcquireTimeoutSecs) * time.Second
}

// StartupTimeout bounds browser launch at service start and on restart.
func (c Config) StartupTimeout() time.Duration {
	return time.Duration(c.PDF.StartupTimeoutSecs) * time.Second
}
