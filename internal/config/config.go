// Package config handles slidebridge settings: the cached OpenLP remote
// URL, the output file path, and the loop timings. Settings live in a
// single YAML file so the URL entered on the first run is remembered on
// the next one.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for Config. Timings are in milliseconds.
const (
	DefaultOutputPath       = "Text Layer.csv"
	DefaultPollIntervalMS   = 250
	DefaultRetryIntervalMS  = 5000
	DefaultRequestTimeoutMS = 1000
	DefaultDebounceWindowMS = 1500

	// DefaultRemotePort is the port OpenLP's remote plugin listens on.
	DefaultRemotePort = "4316"
)

// Config holds all slidebridge settings.
type Config struct {
	// RemoteURL is the OpenLP remote base URL, e.g.
	// "http://192.168.1.20:4316". Empty until the first run persists
	// one.
	RemoteURL string `yaml:"remote_url"`

	// OutputPath is the text layer CSV path watched by the switcher.
	OutputPath string `yaml:"output_path"`

	PollIntervalMS   int `yaml:"poll_interval_ms"`
	RetryIntervalMS  int `yaml:"retry_interval_ms"`
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	DebounceWindowMS int `yaml:"debounce_window_ms"`

	// KeepOnExit leaves the last written content in place on exit
	// instead of clearing the overlay.
	KeepOnExit bool `yaml:"keep_on_exit"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		OutputPath:       DefaultOutputPath,
		PollIntervalMS:   DefaultPollIntervalMS,
		RetryIntervalMS:  DefaultRetryIntervalMS,
		RequestTimeoutMS: DefaultRequestTimeoutMS,
		DebounceWindowMS: DefaultDebounceWindowMS,
	}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// RetryInterval returns the connectivity retry interval as a duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// DebounceWindow returns the interrupt debounce window as a duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceWindowMS) * time.Millisecond
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/slidebridge/config.yaml or the platform equivalent.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "slidebridge", "config.yaml"), nil
}

// Load reads and parses the config file at path. A missing file returns
// the default config; a present but invalid one is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories as
// needed. The file is written to a temporary name in the same directory
// and renamed into place, so an interrupted save never leaves a
// truncated config behind.
func Save(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	tmpName := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	renamed = true
	return nil
}

// Validate checks that all config values are usable.
func Validate(cfg *Config) error {
	if cfg.OutputPath == "" {
		return ValidationError{Field: "output_path", Message: "must not be empty"}
	}
	if cfg.PollIntervalMS <= 0 {
		return ValidationError{Field: "poll_interval_ms", Message: "must be positive"}
	}
	if cfg.RetryIntervalMS <= 0 {
		return ValidationError{Field: "retry_interval_ms", Message: "must be positive"}
	}
	if cfg.RequestTimeoutMS <= 0 {
		return ValidationError{Field: "request_timeout_ms", Message: "must be positive"}
	}
	if cfg.DebounceWindowMS <= 0 {
		return ValidationError{Field: "debounce_window_ms", Message: "must be positive"}
	}
	if cfg.RemoteURL != "" {
		if _, err := NormalizeURL(cfg.RemoteURL); err != nil {
			return ValidationError{Field: "remote_url", Message: err.Error()}
		}
	}
	return nil
}

// NormalizeURL turns operator input into a canonical OpenLP base URL: a
// missing scheme becomes http, a missing port becomes the OpenLP remote
// default, and any path, query, or fragment is stripped.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("URL has no host")
	}
	if parsed.Port() == "" {
		parsed.Host = parsed.Hostname() + ":" + DefaultRemotePort
	}

	parsed.Path = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil
	return parsed.String(), nil
}
