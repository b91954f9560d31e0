// Package envconfig provides the configuration record used to construct
// simulation-backed environments. Configurations are loaded once from
// YAML or JSON files and are never mutated afterwards.
package envconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Mode is the kind of functional mock-up unit a model is exported as
type Mode string

const (
	CoSimulation  Mode = "CS"
	ModelExchange Mode = "ME"
)

// Config implements a specific configuration of a simulation model and
// the reward scheme of the environment built around it. The field tags
// match the keys of the original config.json so that existing files
// can be loaded as-is.
type Config struct {
	// FMUMode is either "CS" (co-simulation) or "ME" (model exchange)
	FMUMode Mode `yaml:"fmu_mode" json:"fmu_mode"`

	// FMIVersion is the FMI standard version of the model, 1 or 2.
	// Version 2 models require an experiment setup on every reset.
	FMIVersion int `yaml:"fmi_version" json:"fmi_version"`

	// ModelPath is the path of the model. Its base name selects the
	// registered model implementation.
	ModelPath string `yaml:"model_path" json:"model_path"`

	// TimeStep is the duration, in seconds, of a single environment step
	TimeStep float64 `yaml:"time_step" json:"time_step"`

	// StartTime is the simulation time each episode starts at
	StartTime float64 `yaml:"start_time" json:"start_time"`

	PositiveReward float64 `yaml:"positive_reward" json:"positive_reward"`
	NegativeReward float64 `yaml:"negative_reward" json:"negative_reward"`

	// ModelParameters are the default parameter values applied on
	// reset when no overrides are given
	ModelParameters map[string]float64 `yaml:"model_parameters" json:"model_parameters"`

	// ModelInputNames are the model variables actions are written to,
	// in action order
	ModelInputNames []string `yaml:"model_input_names" json:"model_input_names"`

	// ModelOutputNames are the model variables observations are read
	// from, in observation order
	ModelOutputNames []string `yaml:"model_output_names" json:"model_output_names"`

	// Force is the magnitude of the force applied by a single action
	Force float64 `yaml:"force" json:"force"`
}

// Default returns the cart-pole configuration the project ships with
func Default() Config {
	return Config{
		FMUMode:         CoSimulation,
		FMIVersion:      2,
		ModelPath:       "cartpole/models/ModelicaGym_CartPole_CS.fmu",
		TimeStep:        0.05,
		StartTime:       0,
		PositiveReward:  1,
		NegativeReward:  -100,
		ModelParameters: map[string]float64{"m_cart": 10, "m_pole": 1},
		ModelInputNames: []string{"f"},
		ModelOutputNames: []string{
			"x", "x_dot", "theta", "theta_dot",
		},
		Force: 12,
	}
}

// Load reads a Config from the YAML or JSON file at path and validates
// it. Keys that are absent from the file take their values from
// Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: could not read config: %w", err)
	}

	c := Default()

	// Maps and slices are replaced, not merged, when present in the file
	c.ModelParameters = nil
	c.ModelInputNames = nil
	c.ModelOutputNames = nil
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: could not parse config %v: %w",
			path, err)
	}

	def := Default()
	if c.ModelParameters == nil {
		c.ModelParameters = def.ModelParameters
	}
	if c.ModelInputNames == nil {
		c.ModelInputNames = def.ModelInputNames
	}
	if c.ModelOutputNames == nil {
		c.ModelOutputNames = def.ModelOutputNames
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.FMUMode != CoSimulation && c.FMUMode != ModelExchange {
		return fmt.Errorf("validate: fmu_mode must be %q or %q, got %q",
			CoSimulation, ModelExchange, c.FMUMode)
	}
	if c.FMIVersion != 1 && c.FMIVersion != 2 {
		return fmt.Errorf("validate: fmi_version must be 1 or 2, got %d",
			c.FMIVersion)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("validate: model_path cannot be empty")
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("validate: time_step must be positive, got %v",
			c.TimeStep)
	}
	if c.StartTime < 0 {
		return fmt.Errorf("validate: start_time cannot be negative, got %v",
			c.StartTime)
	}
	if len(c.ModelInputNames) == 0 {
		return fmt.Errorf("validate: model_input_names cannot be empty")
	}
	if len(c.ModelOutputNames) == 0 {
		return fmt.Errorf("validate: model_output_names cannot be empty")
	}
	return nil
}

// ModelName returns the base name of the model file
func (c Config) ModelName() string {
	return filepath.Base(c.ModelPath)
}

// ParameterNames returns the names of the default model parameters in
// sorted order
func (c Config) ParameterNames() []string {
	names := make([]string, 0, len(c.ModelParameters))
	for name := range c.ModelParameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the Config
func (c Config) Clone() Config {
	clone := c

	clone.ModelParameters = make(map[string]float64, len(c.ModelParameters))
	for k, v := range c.ModelParameters {
		clone.ModelParameters[k] = v
	}

	clone.ModelInputNames = append([]string(nil), c.ModelInputNames...)
	clone.ModelOutputNames = append([]string(nil), c.ModelOutputNames...)

	return clone
}
