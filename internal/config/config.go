// Package config provides configuration management for livefield using Viper
// for loading from files, environment variables, and command-line flags.
//
// Values come from .livefield.yml (or the file named by --config or
// LIVEFIELD_CONFIG_FILE) with LIVEFIELD_<SECTION>_<OPTION> environment
// overrides. Load applies defaults for anything left unset and validates the
// result.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/livefield/internal/content"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Content ContentConfig `mapstructure:"content" yaml:"content"`
	Preview PreviewConfig `mapstructure:"preview" yaml:"preview"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	Host           string   `mapstructure:"host" yaml:"host"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type ContentConfig struct {
	File              string `mapstructure:"file" yaml:"file"`
	DefaultCapability string `mapstructure:"default_capability" yaml:"default_capability"`
}

type PreviewConfig struct {
	Watch        bool          `mapstructure:"watch" yaml:"watch"`
	Debounce     time.Duration `mapstructure:"debounce" yaml:"debounce"`
	ExcerptWords int           `mapstructure:"excerpt_words" yaml:"excerpt_words"`
	Autop        bool          `mapstructure:"autop" yaml:"autop"`
}

type AuthConfig struct {
	Mode        string              `mapstructure:"mode" yaml:"mode"`
	RoleHeader  string              `mapstructure:"role_header" yaml:"role_header"`
	DefaultRole string              `mapstructure:"default_role" yaml:"default_role"`
	Roles       map[string][]string `mapstructure:"roles" yaml:"roles"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// log-level is bound to the root persistent flag
	if v.IsSet("log-level") && !v.IsSet("logging.level") {
		config.Logging.Level = v.GetString("log-level")
	}

	if len(config.Auth.Roles) == 0 {
		config.Auth.Roles = DefaultRoles()
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("content.file", "content.yml")
	v.SetDefault("content.default_capability", content.DefaultCapability)
	v.SetDefault("preview.watch", true)
	v.SetDefault("preview.debounce", 300*time.Millisecond)
	v.SetDefault("preview.excerpt_words", 55)
	v.SetDefault("preview.autop", true)
	v.SetDefault("auth.mode", "enforce")
	v.SetDefault("auth.role_header", "X-Preview-Role")
	v.SetDefault("auth.default_role", "anonymous")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// DefaultRoles maps role names to the capabilities they hold.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"administrator": {"edit_posts", "edit_pages", content.DefaultCapability},
		"editor":        {"edit_posts", "edit_pages", content.DefaultCapability},
		"author":        {"edit_posts"},
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateContentConfig(&config.Content); err != nil {
		return fmt.Errorf("content config: %w", err)
	}

	if config.Preview.Debounce < 0 {
		return fmt.Errorf("preview config: debounce must not be negative")
	}
	if config.Preview.ExcerptWords < 0 {
		return fmt.Errorf("preview config: excerpt_words must not be negative")
	}

	switch config.Auth.Mode {
	case "enforce", "disabled":
	default:
		return fmt.Errorf("auth config: mode %q must be enforce or disabled", config.Auth.Mode)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging config: unknown level %q", config.Logging.Level)
	}
	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return fmt.Errorf("logging config: format %q must be text or json", config.Logging.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateContentConfig(config *ContentConfig) error {
	if config.File == "" {
		return fmt.Errorf("file is required")
	}

	cleanPath := filepath.Clean(config.File)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("file contains path traversal: %s", config.File)
	}

	return nil
}
