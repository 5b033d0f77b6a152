// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting, and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

// Configuration holds all configuration for a simulation run.
type Configuration struct {
	Profile    Profile                 `yaml:"profile" mapstructure:"profile"`
	Leverage   policy.LeverageSchedule `yaml:"leverage,omitempty" mapstructure:"leverage"`
	Friction   policy.FrictionPolicy   `yaml:"friction,omitempty" mapstructure:"friction"`
	MonteCarlo MonteCarloConfig        `yaml:"monteCarlo,omitempty" mapstructure:"monteCarlo"`
	Logging    LoggingConfig           `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig            `yaml:"output,omitempty" mapstructure:"output"`
}

// Profile describes the individual being simulated. Rates are percentages.
type Profile struct {
	CurrentAge          int     `yaml:"currentAge" mapstructure:"currentAge"`
	CurrentNetWorth     float64 `yaml:"currentNetWorth" mapstructure:"currentNetWorth"`
	MonthlyContribution float64 `yaml:"monthlyContribution" mapstructure:"monthlyContribution"`
	AnnualReturnRate    float64 `yaml:"annualReturnRate" mapstructure:"annualReturnRate"`
	VolatilityRate      float64 `yaml:"volatilityRate,omitempty" mapstructure:"volatilityRate"`
	InflationRate       float64 `yaml:"inflationRate" mapstructure:"inflationRate"`
	TargetNetWorth      float64 `yaml:"targetNetWorth" mapstructure:"targetNetWorth"`
	RetireAge           int     `yaml:"retireAge" mapstructure:"retireAge"`
	AnnualWithdrawal    float64 `yaml:"annualWithdrawal" mapstructure:"annualWithdrawal"`
	ContributionUnit    float64 `yaml:"contributionUnit,omitempty" mapstructure:"contributionUnit"`
}

// MonteCarloConfig controls the randomized mode.
type MonteCarloConfig struct {
	Enabled bool    `yaml:"enabled,omitempty" mapstructure:"enabled"`
	Runs    int     `yaml:"runs,omitempty" mapstructure:"runs"`
	Seed    *uint64 `yaml:"seed,omitempty" mapstructure:"seed"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, pdf
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. LIFESIM_* environment variables override file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("monteCarlo.runs", constants.DefaultMonteCarloRuns)
	v.SetDefault("profile.contributionUnit", 1)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset optional sections.
func (c *Configuration) ApplyDefaults() {
	if len(c.Leverage.Bands) == 0 {
		c.Leverage = policy.DefaultBands(1.0)
	}
	if c.Leverage.Rule == "" {
		c.Leverage.Rule = policy.BoundaryInclusive
	}
	if c.Friction.Kind == "" && c.Friction.Rate == 0 {
		c.Friction = policy.DefaultFriction()
	}
	c.Friction.Normalize()
	if c.MonteCarlo.Runs == 0 {
		c.MonteCarlo.Runs = constants.DefaultMonteCarloRuns
	}
	if c.Profile.ContributionUnit == 0 {
		c.Profile.ContributionUnit = 1
	}
}

// ToInput converts the configuration into a simulation input, turning
// percentages into decimals.
func (c *Configuration) ToInput() simulation.Input {
	p := c.Profile
	return simulation.Input{
		CurrentAge:          p.CurrentAge,
		CurrentNetWorth:     p.CurrentNetWorth,
		MonthlyContribution: p.MonthlyContribution,
		AnnualReturn:        p.AnnualReturnRate / constants.PercentageMultiplier,
		AnnualVolatility:    p.VolatilityRate / constants.PercentageMultiplier,
		AnnualInflation:     p.InflationRate / constants.PercentageMultiplier,
		TargetNetWorth:      p.TargetNetWorth,
		RetireAge:           p.RetireAge,
		AnnualWithdrawal:    p.AnnualWithdrawal,
		ContributionUnit:    p.ContributionUnit,
		Leverage:            c.Leverage,
		Friction:            c.Friction,
	}
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Hard errors are reported by simulation.Input.Validate.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	p := c.Profile

	for _, b := range c.Leverage.Bands {
		if b.Multiplier > constants.HighLeverageWarning {
			warnings = append(warnings, fmt.Sprintf("Leverage band %s uses %.2fx, above %.1fx",
				c.Leverage.Label(b), b.Multiplier, constants.HighLeverageWarning))
		}
	}

	if p.VolatilityRate > 0 && !c.MonteCarlo.Enabled {
		warnings = append(warnings, fmt.Sprintf("volatilityRate %.2f%% is ignored unless monteCarlo is enabled", p.VolatilityRate))
	}
	if c.MonteCarlo.Enabled && p.VolatilityRate == 0 {
		warnings = append(warnings, "monteCarlo is enabled with zero volatility - every run will be identical")
	}

	if p.TargetNetWorth > 0 && p.AnnualWithdrawal > p.TargetNetWorth*0.1 {
		warnings = append(warnings, fmt.Sprintf("annual withdrawal %.2f is more than 10%% of the target net worth %.2f",
			p.AnnualWithdrawal, p.TargetNetWorth))
	}
	if p.TargetNetWorth > 0 && p.TargetNetWorth == p.CurrentNetWorth {
		warnings = append(warnings, "target net worth equals current net worth - the target is reached immediately")
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
