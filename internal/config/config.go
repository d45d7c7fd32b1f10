// Package config loads the analysis configuration from file and environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/allocation"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/stationarity"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/varmodel"
)

// Config is the complete application configuration.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Model      ModelConfig      `mapstructure:"model"`
	Bootstrap  BootstrapConfig  `mapstructure:"bootstrap"`
	Elasticity ElasticityConfig `mapstructure:"elasticity"`
	Output     OutputConfig     `mapstructure:"output"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DataConfig locates the input table and names its columns.
type DataConfig struct {
	Path     string   `mapstructure:"path"`
	Channels []string `mapstructure:"channels"`
	Sales    string   `mapstructure:"sales"`
}

// ModelConfig holds the econometric tuning knobs.
type ModelConfig struct {
	SeasonalPeriod    int     `mapstructure:"seasonal_period"`
	SeasonalThreshold float64 `mapstructure:"seasonal_threshold"`
	MaxLag            int     `mapstructure:"max_lag"`
	Alpha             float64 `mapstructure:"alpha"`
	// CausalOrdering overrides the contemporaneous shock ordering; empty
	// means channels in configured order followed by sales.
	CausalOrdering []string `mapstructure:"causal_ordering"`
}

// BootstrapConfig tunes the IRF confidence bands.
type BootstrapConfig struct {
	Replications       int     `mapstructure:"replications"`
	Horizon            int     `mapstructure:"horizon"`
	Confidence         float64 `mapstructure:"confidence"`
	Seed               int64   `mapstructure:"seed"`
	MinSuccessFraction float64 `mapstructure:"min_success_fraction"`
}

// ElasticityConfig tunes the significance filter.
type ElasticityConfig struct {
	TThreshold float64 `mapstructure:"t_threshold"`
}

// OutputConfig names the report directory.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file with environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix("VARBUDGET")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.sales", "sales")
	v.SetDefault("model.seasonal_period", 52)
	v.SetDefault("model.seasonal_threshold", stationarity.DefaultSeasonalThreshold)
	v.SetDefault("model.max_lag", 1)
	v.SetDefault("model.alpha", stationarity.DefaultAlpha)
	v.SetDefault("bootstrap.replications", 500)
	v.SetDefault("bootstrap.horizon", 12)
	v.SetDefault("bootstrap.confidence", 0.95)
	v.SetDefault("bootstrap.seed", 0)
	v.SetDefault("bootstrap.min_success_fraction", varmodel.DefaultMinSuccessFraction)
	v.SetDefault("elasticity.t_threshold", allocation.DefaultTThreshold)
	v.SetDefault("output.dir", "output")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects parameterizations no dataset could support.
func (c *Config) Validate() error {
	if len(c.Data.Channels) == 0 {
		return fmt.Errorf("data.channels must name at least one channel")
	}
	if c.Data.Sales == "" {
		return fmt.Errorf("data.sales must name the response column")
	}
	if c.Model.MaxLag < 1 {
		return fmt.Errorf("model.max_lag must be at least 1, got %d", c.Model.MaxLag)
	}
	if c.Bootstrap.Horizon < 1 {
		return fmt.Errorf("bootstrap.horizon must be at least 1, got %d", c.Bootstrap.Horizon)
	}
	if c.Bootstrap.Replications < 1 {
		return fmt.Errorf("bootstrap.replications must be positive, got %d", c.Bootstrap.Replications)
	}
	if c.Bootstrap.Confidence <= 0 || c.Bootstrap.Confidence >= 1 {
		return fmt.Errorf("bootstrap.confidence must be in (0,1), got %g", c.Bootstrap.Confidence)
	}
	return nil
}
