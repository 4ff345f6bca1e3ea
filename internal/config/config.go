// Package config loads the YAML configuration of the analyzer.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/internal/logging"
)

// ThresholdsConfig overrides the built-in presets. Each set given is taken
// whole; sets left out keep their defaults.
type ThresholdsConfig struct {
	Render      *analyzer.Thresholds `yaml:"render"`
	CommitPhase *analyzer.Thresholds `yaml:"commit_phase"`
	Effect      *analyzer.Thresholds `yaml:"effect"`
}

type ChartConfig struct {
	WidthInches  float64 `yaml:"width_inches"`
	HeightInches float64 `yaml:"height_inches"`
}

type Config struct {
	Thresholds *ThresholdsConfig `yaml:"thresholds"`
	TopN       int               `yaml:"top_n"`
	LogLevel   string            `yaml:"log_level"`
	Chart      *ChartConfig      `yaml:"chart"`
}

func (c *Config) fillDefault() {
	if c.Thresholds == nil {
		c.Thresholds = &ThresholdsConfig{}
	}
	if c.Thresholds.Render == nil {
		th := analyzer.RenderTimeThresholds()
		c.Thresholds.Render = &th
	}
	if c.Thresholds.CommitPhase == nil {
		th := analyzer.CommitPhaseThresholds()
		c.Thresholds.CommitPhase = &th
	}
	if c.Thresholds.Effect == nil {
		th := analyzer.EffectDurationThresholds()
		c.Thresholds.Effect = &th
	}

	if c.TopN == 0 {
		c.TopN = analyzer.MaxSlowestComponents
	}
	if c.LogLevel == "" {
		c.LogLevel = logging.DefaultLevel
	}

	if c.Chart == nil {
		c.Chart = &ChartConfig{}
	}
	if c.Chart.WidthInches == 0 {
		c.Chart.WidthInches = 10
	}
	if c.Chart.HeightInches == 0 {
		c.Chart.HeightInches = 5
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if err := c.ThresholdSet().Validate(); err != nil {
		return err
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.Chart.WidthInches < 0 || c.Chart.HeightInches < 0 {
		return fmt.Errorf("chart size %vx%v is negative", c.Chart.WidthInches, c.Chart.HeightInches)
	}
	return nil
}

// ThresholdSet returns the effective presets.
func (c *Config) ThresholdSet() analyzer.ThresholdSet {
	return analyzer.ThresholdSet{
		Render:      *c.Thresholds.Render,
		CommitPhase: *c.Thresholds.CommitPhase,
		Effect:      *c.Thresholds.Effect,
	}
}

// ChartSize returns the configured chart canvas size.
func (c *Config) ChartSize() (width, height vg.Length) {
	return vg.Length(c.Chart.WidthInches) * vg.Inch, vg.Length(c.Chart.HeightInches) * vg.Inch
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var conf Config
	conf.fillDefault()
	return &conf
}

// Load reads the config at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open config file: %w", err)
	}
	defer file.Close()

	conf, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("can't parse config: %s, with error: %w", path, err)
	}
	return conf, nil
}

// Parse decodes a config from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	var conf Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	conf.fillDefault()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
