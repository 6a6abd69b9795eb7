// Package config manages Meridian broker configuration using Viper.
// Values come from a TOML config file, MERIDIAN_-prefixed environment
// variables, and built-in defaults, in that precedence order.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/meridianhq/meridian/errors"
)

// Config is the broker process configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Services ServicesConfig `mapstructure:"services"`
	Staging  StagingConfig  `mapstructure:"staging"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// CallbackRatePerSecond and CallbackBurst bound inbound callbacks per
	// remote address
	CallbackRatePerSecond float64 `mapstructure:"callback_rate_per_second"`
	CallbackBurst         int     `mapstructure:"callback_burst"`
}

// ServicesConfig locates the backend services capability document
type ServicesConfig struct {
	ConfigPath string `mapstructure:"config_path"`
}

// StagingConfig holds object staging settings
type StagingConfig struct {
	Root string `mapstructure:"root"`
}

// LogConfig holds logging settings
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// Load reads configuration from the default sources: meridian.toml in the
// working directory (when present), environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("meridian")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MERIDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover it
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}
