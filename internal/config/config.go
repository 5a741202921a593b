// ABOUTME: Viper-backed configuration for the refgraph command line
// ABOUTME: Defaults, REFGRAPH_ environment overrides and validation warnings

package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/prateek/refgraph/graph"
)

// EnvPrefix prefixes environment overrides, e.g. REFGRAPH_LOG_LEVEL
const EnvPrefix = "REFGRAPH"

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig selects the slog level and handler format
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractConfig holds the defaults for graph extraction
type ExtractConfig struct {
	SkipMembers   []string `mapstructure:"skip_members"`
	ExcludeKinds  []string `mapstructure:"exclude_kinds"`
	MaxNodes      int      `mapstructure:"max_nodes"`
	MaxLabelDepth int      `mapstructure:"max_label_depth"`
}

// OutputConfig controls how the viewer document is written
type OutputConfig struct {
	Indent   bool `mapstructure:"indent"`
	Compress bool `mapstructure:"compress"`
}

// TelemetryConfig selects the otel exporters: "none" or "stdout"
type TelemetryConfig struct {
	Traces  string `mapstructure:"traces"`
	Metrics string `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("extract.skip_members", graph.DefaultSkipMembers)
	v.SetDefault("extract.exclude_kinds", []string{})
	v.SetDefault("extract.max_nodes", 0)
	v.SetDefault("extract.max_label_depth", graph.DefaultMaxLabelDepth)
	v.SetDefault("output.indent", true)
	v.SetDefault("output.compress", false)
	v.SetDefault("telemetry.traces", "none")
	v.SetDefault("telemetry.metrics", "none")
}

// Load reads configuration from file and environment. An empty path
// loads the defaults with environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log level '%s' is unknown, using info", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "auto":
	default:
		warnings = append(warnings, fmt.Sprintf("log format '%s' is unknown, using text", c.Log.Format))
	}

	if c.Extract.MaxNodes < 0 {
		warnings = append(warnings, fmt.Sprintf("extract max_nodes %d is negative, treated as unlimited", c.Extract.MaxNodes))
	}
	if c.Extract.MaxLabelDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("extract max_label_depth %d is negative, using %d", c.Extract.MaxLabelDepth, graph.DefaultMaxLabelDepth))
	}
	for _, pattern := range c.Extract.ExcludeKinds {
		if !doublestar.ValidatePattern(pattern) {
			warnings = append(warnings, fmt.Sprintf("exclude_kinds pattern %q is malformed", pattern))
		}
	}

	c.Telemetry.Traces = checkExporter("traces", c.Telemetry.Traces, &warnings)
	c.Telemetry.Metrics = checkExporter("metrics", c.Telemetry.Metrics, &warnings)

	return warnings
}

// checkExporter returns the exporter name, replacing unknown ones with
// "none" and recording a warning
func checkExporter(signal, exporter string, warnings *[]string) string {
	switch strings.ToLower(exporter) {
	case "", "none", "stdout":
		return exporter
	}
	*warnings = append(*warnings, fmt.Sprintf("telemetry %s exporter '%s' is unknown, using none", signal, exporter))
	return "none"
}

// BuilderOptions translates the extract section into builder options
func (c *Config) BuilderOptions() []graph.BuilderOption {
	opts := []graph.BuilderOption{
		graph.WithSkipMembers(c.Extract.SkipMembers...),
		graph.WithExcludeKinds(c.Extract.ExcludeKinds...),
		graph.WithMaxLabelDepth(c.Extract.MaxLabelDepth),
	}
	if c.Extract.MaxNodes > 0 {
		opts = append(opts, graph.WithMaxNodes(c.Extract.MaxNodes))
	}
	return opts
}
