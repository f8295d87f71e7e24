package extension

import "github.com/xraph/invoicer/config"

// Config holds the Invoicer extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.invoicer" or "invoicer" keys).
type Config struct {
	config.Config `mapstructure:",squash" yaml:",inline"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Config: config.Default()}
}
