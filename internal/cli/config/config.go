// Package config loads interop.yml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the interop tool configuration
type Config struct {
	Classpath          []string     `mapstructure:"classpath"`
	AdditionalBuiltins bool         `mapstructure:"additional_builtins"`
	Workers            int          `mapstructure:"workers"`
	Output             OutputConfig `mapstructure:"output"`
	Log                LogConfig    `mapstructure:"log"`
}

// OutputConfig controls how commands print results
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads interop.yml or interop.yaml from the working directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads the configuration file from dir. A missing file is not an
// error; defaults and INTEROP_* variables apply.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("classpath", []string{})
	v.SetDefault("additional_builtins", true)
	v.SetDefault("workers", 4)
	v.SetDefault("output.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetConfigName("interop")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// INTEROP_OUTPUT_FORMAT overrides output.format
	v.SetEnvPrefix("INTEROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Classpath = splitList(config.Classpath)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	config.Classpath = resolveClasspath(dir, config.Classpath)
	return &config, nil
}

// splitList trims entries and splits comma separated ones, as given in
// INTEROP_CLASSPATH.
func splitList(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		for _, part := range strings.Split(e, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

// resolveClasspath makes relative local entries relative to dir. URLs with
// a scheme are kept as written.
func resolveClasspath(dir string, entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "://") || filepath.IsAbs(e) {
			out = append(out, e)
			continue
		}
		out = append(out, filepath.Join(dir, e))
	}
	return out
}

// Exists reports whether dir holds a configuration file
func Exists(dir string) bool {
	for _, name := range []string{"interop.yml", "interop.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// NewLogger builds the zap logger described by cfg
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func parseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got: %s", cfg.Output.Format)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got: %d", cfg.Workers)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for _, e := range cfg.Classpath {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("classpath entries must not be empty")
		}
	}
	return nil
}
