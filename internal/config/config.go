// Package config loads n8nview settings.
// Priority: env vars > settings.json > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. N8NVIEW_LOCALE.
const EnvPrefix = "N8NVIEW"

// Config holds all n8nview configuration.
type Config struct {
	ListenAddr     string        `mapstructure:"listen_addr" json:"listen_addr"`
	LogLevel       string        `mapstructure:"log_level" json:"log_level"`
	LogFormat      string        `mapstructure:"log_format" json:"log_format"`
	Locale         string        `mapstructure:"locale" json:"locale"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
	SweepSchedule  string        `mapstructure:"sweep_schedule" json:"sweep_schedule"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" json:"max_upload_bytes"`
	BinDir         string        `mapstructure:"bin_dir" json:"bin_dir"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:     ":4200",
		LogLevel:       "info",
		LogFormat:      "text",
		Locale:         "vi",
		SessionTTL:     2 * time.Hour,
		SweepSchedule:  "*/5 * * * *",
		MaxUploadBytes: 10 << 20,
		BinDir:         filepath.Join(Dir(), "bin"),
	}
}

// Dir is the per-user n8nview directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".n8nview"
	}
	return filepath.Join(home, ".n8nview")
}

// SettingsPath is the default settings file.
func SettingsPath() string {
	return filepath.Join(Dir(), "settings.json")
}

// Load reads settings from path (SettingsPath when empty) and the
// environment. A missing settings file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = SettingsPath()
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("locale", d.Locale)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("sweep_schedule", d.SweepSchedule)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("bin_dir", d.BinDir)
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var problems []string
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q: must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q: must be text or json", c.LogFormat))
	}
	switch c.Locale {
	case "vi", "en":
	default:
		problems = append(problems, fmt.Sprintf("locale %q: must be vi or en", c.Locale))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "session_ttl must be positive")
	}
	if strings.TrimSpace(c.SweepSchedule) == "" {
		problems = append(problems, "sweep_schedule must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "max_upload_bytes must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
