package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "meridian.db")

	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8700)
	v.SetDefault("server.callback_rate_per_second", 20.0)
	v.SetDefault("server.callback_burst", 40)

	// Services registry defaults
	v.SetDefault("services.config_path", "services.yml")

	// Staging defaults
	v.SetDefault("staging.root", "staging")

	// Logging defaults
	v.SetDefault("log.json", false)
}
