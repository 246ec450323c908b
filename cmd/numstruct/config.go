package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ukaji3/numstruct-go/pkg/numstruct"
)

// configEnv names the environment variable holding the config file path
// when --config is not given.
const configEnv = "NUMSTRUCT_CONFIG"

// Config holds the settings a config file may provide. Command line flags
// override them.
type Config struct {
	// Mode is the extraction mode: light, standard or verbose.
	Mode string `yaml:"mode"`
	// Pretty indents JSON output.
	Pretty bool `yaml:"pretty"`
	// IncludeFormulas overrides the mode's formula setting.
	IncludeFormulas *bool `yaml:"include_formulas,omitempty"`
	// IncludeMerges overrides the mode's merge and header name setting.
	IncludeMerges *bool `yaml:"include_merges,omitempty"`
	// CompactIdentifiers renumbers new identifiers when saving.
	CompactIdentifiers bool `yaml:"compact_identifiers"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures diagnostic output on stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Mode: string(numstruct.ModeStandard),
		Log:  LogConfig{Level: "warn", Format: "text"},
	}
}

// loadConfig reads the config file at path, or the one named by
// NUMSTRUCT_CONFIG when path is empty. Without either the defaults apply.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, ok := numstruct.ParseMode(c.Mode); !ok {
		return fmt.Errorf("invalid mode: %s (must be light, standard, or verbose)", c.Mode)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
	return level, nil
}

// Logger returns a logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options returns the library options for the configuration.
func (c *Config) Options(log *slog.Logger) numstruct.Options {
	mode, _ := numstruct.ParseMode(c.Mode)
	return numstruct.Options{
		Mode:               mode,
		IncludeFormulas:    c.IncludeFormulas,
		IncludeMerges:      c.IncludeMerges,
		CompactIdentifiers: c.CompactIdentifiers,
		Logger:             log,
	}
}
