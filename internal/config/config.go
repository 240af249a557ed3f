// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads the settings of a loom program from defaults,
// an optional TOML file, LOOM_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"loomui.org/app"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "LOOM"

// Config holds the settings of a program.
type Config struct {
	// AppID names the directory holding persisted state.
	AppID string `mapstructure:"app_id"`
	// RunAndReturn returns from the run loop on exit instead of
	// terminating the process.
	RunAndReturn bool `mapstructure:"run_and_return"`
	// RepaintNow is "auto", "deferred" or "immediate".
	RepaintNow string `mapstructure:"repaint_now"`
	// LogLevel is a zerolog level name, or "off".
	LogLevel string `mapstructure:"log_level"`
	// StoragePath overrides the state file location.
	StoragePath string `mapstructure:"storage_path"`
	// Frames is the number of frames to paint before exiting; 0 runs
	// until the window is closed.
	Frames int `mapstructure:"frames"`
	// Tick is the interval of background repaint requests.
	Tick time.Duration `mapstructure:"tick"`
	// AutoSave is the minimum interval between saves of the
	// application state while running. 0 saves only on exit.
	AutoSave time.Duration `mapstructure:"auto_save"`
}

// setting binds a configuration key to its flag.
type setting struct {
	key   string
	flag  string
	value any
	usage string
}

var settings = []setting{
	{"app_id", "app-id", app.ID, "application identifier, names the state directory"},
	{"run_and_return", "run-and-return", true, "return from the run loop on exit instead of terminating"},
	{"repaint_now", "repaint-now", "auto", "RepaintNow handling: auto, deferred or immediate"},
	{"log_level", "log-level", "info", "log level: trace, debug, info, warn, error or off"},
	{"storage_path", "storage-path", "", "state file path (default <config dir>/<app id>/app.yaml)"},
	{"frames", "frames", 0, "frames to paint before exiting, 0 for no limit"},
	{"tick", "tick", 16 * time.Millisecond, "interval of background repaint requests"},
	{"auto_save", "auto-save", 30 * time.Second, "minimum interval between state saves while running, 0 to save on exit only"},
}

// Flags registers the configuration flags on fs.
func Flags(fs *pflag.FlagSet) {
	for _, s := range settings {
		switch v := s.value.(type) {
		case string:
			fs.String(s.flag, v, s.usage)
		case bool:
			fs.Bool(s.flag, v, s.usage)
		case int:
			fs.Int(s.flag, v, s.usage)
		case time.Duration:
			fs.Duration(s.flag, v, s.usage)
		default:
			panic(fmt.Sprintf("config: unsupported default %T for %s", v, s.key))
		}
	}
}

// Load reads the configuration. The file is LOOM_CONFIG if set,
// otherwise config.toml in the loom directory under os.UserConfigDir;
// a missing default file is not an error. Flags in fs that were set on
// the command line override everything else. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.value)
	}

	v.SetConfigType("toml")
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "loom"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, s := range settings {
			if f := fs.Lookup(s.flag); f != nil {
				if err := v.BindPFlag(s.key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %s: %w", s.flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values of c.
func (c Config) Validate() error {
	switch strings.ToLower(c.RepaintNow) {
	case "", "auto", "deferred", "immediate":
	default:
		return fmt.Errorf("config: invalid repaint_now %q", c.RepaintNow)
	}
	if c.AppID == "" && c.StoragePath == "" {
		return errors.New("config: app_id or storage_path is required")
	}
	if c.Frames < 0 {
		return fmt.Errorf("config: frames must not be negative, got %d", c.Frames)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick must be positive, got %v", c.Tick)
	}
	if c.AutoSave < 0 {
		return fmt.Errorf("config: auto_save must not be negative, got %v", c.AutoSave)
	}
	return nil
}
