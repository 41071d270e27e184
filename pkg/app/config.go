package app

import (
	"time"

	"github.com/spf13/viper"
)

// BaseConfig contains the configuration shared by every command.
type BaseConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	AppName string `mapstructure:"app_name"`

	// Upper bound on a single command invocation. Zero disables the timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// Metrics and log forwarding are enabled when a license key is set.
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel:  "warn",
	LogFormat: "text",

	Timeout: 2 * time.Minute,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("log_format", "LOG_FORMAT")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("timeout", "COMMAND_TIMEOUT")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
