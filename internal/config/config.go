// Package config loads the settings of the rx command.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/wasilibs/go-rx"
)

type Config struct {
	Backend    string `mapstructure:"backend"`
	Syntax     string `mapstructure:"syntax"`
	Engine     string `mapstructure:"engine"`
	Listen     string `mapstructure:"listen"`
	ConfigFile string `mapstructure:"config_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:    "lua",
		Syntax:     "extended",
		Engine:     "re2",
		Listen:     ":7780",
		ConfigFile: "rx", // Searched for as rx.yaml.
	}
}

// LoadConfig reads the configuration from defaults, an optional config file and RX_*
// environment variables, later sources taking precedence. If configFile is empty, rx.yaml
// is looked up in the working directory and $HOME/.rx, and a missing file is not an
// error.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("syntax", cfg.Syntax)
	v.SetDefault("engine", cfg.Engine)
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("config_file", cfg.ConfigFile)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(cfg.ConfigFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.rx")
	}
	v.SetEnvPrefix("RX")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		v.Set("config_file", used)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, _, err := cfg.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options returns the backend and compile options the configuration selects.
func (c *Config) Options() (rx.Backend, []rx.Option, error) {
	backend, err := rx.ParseBackend(c.Backend)
	if err != nil {
		return 0, nil, err
	}
	if backend == rx.Lua {
		return backend, nil, nil
	}
	syntax, err := rx.ParseSyntax(c.Syntax)
	if err != nil {
		return 0, nil, err
	}
	return backend, []rx.Option{rx.WithSyntax(syntax), rx.WithEngine(c.Engine)}, nil
}

// Compile compiles expr with the configured backend and options.
func (c *Config) Compile(expr string) (*rx.Pattern, error) {
	backend, opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return rx.Compile(expr, backend, opts...)
}
