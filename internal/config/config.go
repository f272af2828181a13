// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/studio-forecast/internal/assumptions"
	"github.com/iwvelando/studio-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for studio-forecast.
type Configuration struct {
	Name        string                 `yaml:"name,omitempty"`
	Logging     LoggingConfig          `yaml:"logging,omitempty"`
	Output      OutputConfig           `yaml:"output,omitempty"`
	Assumptions map[string]interface{} `yaml:"assumptions,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, xlsx
	File   string `yaml:"file,omitempty"`   // destination for xlsx reports
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	// Environment overrides are only visible through Get.
	configuration.Logging.Level = v.GetString("logging.level")
	configuration.Output.Format = v.GetString("output.format")

	return &configuration, nil
}

// AssumptionSet overlays the configured assumptions onto the defaults. Viper
// lower-cases keys, so they are folded back to wire names first.
func (c *Configuration) AssumptionSet() assumptions.Set {
	return assumptions.Defaults().Merge(assumptions.FoldKeys(c.Assumptions))
}

// DisplayName is the configured name or a generic one.
func (c *Configuration) DisplayName() string {
	if c.Name == "" {
		return "Studio Forecast"
	}
	return c.Name
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Warnings never change the values used.
func (c *Configuration) ValidateConfiguration() []string {
	set := c.AssumptionSet()

	fields := assumptions.Fields()
	values := make([]validation.FieldValue, 0, len(fields))
	for _, f := range fields {
		values = append(values, validation.FieldValue{
			Name:     f.Name,
			Value:    f.Value(set),
			Fraction: f.Kind == assumptions.Fraction,
		})
	}

	validator := validation.AssumptionValidator{
		Fields:      values,
		UnknownKeys: assumptions.UnknownKeys(assumptions.FoldKeys(c.Assumptions)),
	}
	return validator.ValidateAll()
}
