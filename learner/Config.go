package learner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/modym/agent/tabular/qlearning"
	"github.com/samuelfneumann/modym/experiment"
)

// Config configures a Learner
type Config struct {
	// Agent holds the Q-learning hyper-parameters
	Agent qlearning.Config `yaml:"agent"`

	// Train, Test and Random configure the experiments run by Train,
	// Test and RandomTest
	Train  experiment.Config `yaml:"train"`
	Test   experiment.Config `yaml:"test"`
	Random experiment.Config `yaml:"random"`

	// Bins is the number of bins each observation dimension is split
	// into
	Bins int `yaml:"bins"`

	Seed uint64 `yaml:"seed"`

	// PolicyDir is the directory policies are saved in
	PolicyDir string `yaml:"policy_dir"`

	// CheckpointEvery saves the policy every CheckpointEvery training
	// episodes. Zero disables checkpointing.
	CheckpointEvery int `yaml:"checkpoint_every"`

	// OutputDir, if not empty, is the directory episode data and plots
	// of each experiment are saved in
	OutputDir string `yaml:"output_dir"`

	// Progress determines whether a progress bar is shown
	Progress bool `yaml:"progress"`
}

// DefaultConfig returns the configuration used to balance the cart-pole
func DefaultConfig() Config {
	train := experiment.Config{Episodes: 1000, MaxSteps: 300}
	train.CapBonus = experiment.Bonus(100)

	return Config{
		Agent:     qlearning.DefaultConfig(),
		Train:     train,
		Test:      experiment.Config{Episodes: 100, MaxSteps: 600},
		Random:    experiment.Config{Episodes: 10, MaxSteps: 100},
		Bins:      10,
		PolicyDir: "policies",
	}
}

// LoadConfig reads a Config from the YAML file at path. Keys absent
// from the file keep their values from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not parse %v: %w",
			path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}
	return c, nil
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %w", err)
	}
	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("validate: train: %w", err)
	}
	if err := c.Test.Validate(); err != nil {
		return fmt.Errorf("validate: test: %w", err)
	}
	if err := c.Random.Validate(); err != nil {
		return fmt.Errorf("validate: random: %w", err)
	}
	if c.Bins < 2 {
		return fmt.Errorf("validate: bins must be at least 2, got %d", c.Bins)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("validate: checkpoint interval cannot be "+
			"negative, got %d", c.CheckpointEvery)
	}
	if c.PolicyDir == "" {
		return fmt.Errorf("validate: policy directory cannot be empty")
	}
	return nil
}
