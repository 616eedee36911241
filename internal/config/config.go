// Package config resolves runtime settings for the atlas CLI and TUI.
//
// Precedence, lowest first: built-in defaults, the config file in ConfigDir,
// environment variables (including a .env file loaded by the CLI), then flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"atlas-cli/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigDir = "ATLAS_CONFIG_DIR"
	EnvAPIURL    = "ATLAS_API_URL"
	EnvTimeout   = "ATLAS_TIMEOUT"
	EnvPageSize  = "ATLAS_PAGE_SIZE"
	EnvLogFile   = "ATLAS_LOG_FILE"
	EnvLogLevel  = "ATLAS_LOG_LEVEL"

	DefaultAPIURL   = "http://localhost:8000"
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 10
)

type Config struct {
	APIURL       string   `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	Timeout      Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	PageSize     int      `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
	Themes       []string `json:"themes,omitempty" yaml:"themes,omitempty"`
	DefaultTheme string   `json:"defaultTheme,omitempty" yaml:"defaultTheme,omitempty"`

	// KeepFailed leaves failed uploads staged after a partially successful submit.
	KeepFailed bool `json:"keepFailed,omitempty" yaml:"keepFailed,omitempty"`

	LogFile  string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// Duration reads "30s"-style strings (or integer seconds) from config files.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.Duration.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		d.Duration = time.Duration(n) * time.Second
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func Defaults() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		Timeout:      Duration{DefaultTimeout},
		PageSize:     DefaultPageSize,
		Themes:       append([]string(nil), model.DefaultThemes...),
		DefaultTheme: model.DefaultTheme,
		LogLevel:     "warn",
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.atlas).
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".atlas"), nil
}

// ConfigPath returns the first existing config file (config.json, config.yaml, config.yml),
// or the config.json path when none exists yet.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load resolves defaults, the config file and the environment.
func Load() (*Config, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.mergeEnv(os.Getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var fc Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	c.overlay(fc)
	return nil
}

func (c *Config) overlay(o Config) {
	if strings.TrimSpace(o.APIURL) != "" {
		c.APIURL = strings.TrimSpace(o.APIURL)
	}
	if o.Timeout.Duration > 0 {
		c.Timeout = o.Timeout
	}
	if o.PageSize > 0 {
		c.PageSize = o.PageSize
	}
	if len(o.Themes) > 0 {
		c.Themes = append([]string(nil), o.Themes...)
	}
	if strings.TrimSpace(o.DefaultTheme) != "" {
		c.DefaultTheme = strings.TrimSpace(o.DefaultTheme)
	}
	if o.KeepFailed {
		c.KeepFailed = true
	}
	if strings.TrimSpace(o.LogFile) != "" {
		c.LogFile = strings.TrimSpace(o.LogFile)
	}
	if strings.TrimSpace(o.LogLevel) != "" {
		c.LogLevel = strings.TrimSpace(o.LogLevel)
	}
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	var o Config
	o.APIURL = getenv(EnvAPIURL)
	o.LogFile = getenv(EnvLogFile)
	o.LogLevel = getenv(EnvLogLevel)
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		if err := o.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
	}
	if v := strings.TrimSpace(getenv(EnvPageSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		o.PageSize = n
	}
	c.overlay(o)
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid api url: %q", c.APIURL)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Duration)
	}
	if len(c.Themes) == 0 {
		return errors.New("at least one theme is required")
	}
	if !model.HasTheme(c.Themes, c.DefaultTheme) {
		return fmt.Errorf("default theme %q is not one of %s", c.DefaultTheme, strings.Join(c.Themes, ", "))
	}
	return nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// Save writes cfg to path, choosing YAML or JSON by extension.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var b []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(cfg)
	default:
		b, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, filepath.Base(path)+".*.tmp", path, b, 0o600)
}
