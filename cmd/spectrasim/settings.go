package main

import (
	"fmt"
	"io"
	"strings"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings are process-level options, distinct from the simulation config.
type settings struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	Solver   string `mapstructure:"solver"`
}

// loadSettings layers defaults, SPECTRASIM_* environment variables and the
// root persistent flags, in increasing precedence.
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	v.SetDefault("data_dir", ".spectrasim")
	v.SetDefault("log_level", "warn")
	v.SetDefault("solver", "")

	v.SetEnvPrefix("SPECTRASIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"data_dir":  "data-dir",
		"log_level": "log-level",
		"solver":    "solver",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return settings{}, fmt.Errorf("bind %s: %w", flag, err)
			}
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// newLogger returns a logfmt logger filtered at the named level.
func newLogger(w io.Writer, name string) (kitlog.Logger, error) {
	var opt level.Option
	switch strings.ToLower(name) {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn", "warning":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	case "none", "off":
		opt = level.AllowNone()
	default:
		return nil, fmt.Errorf("unknown log level: %s", name)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	return level.NewFilter(logger, opt), nil
}
