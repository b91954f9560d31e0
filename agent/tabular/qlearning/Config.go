package qlearning

import (
	"fmt"

	"github.com/samuelfneumann/modym/agent"
	"github.com/samuelfneumann/modym/environment"
)

// Config represents a configuration for the tabular QLearning agent
type Config struct {
	LearningRate float64 `yaml:"learning_rate"`
	Discount     float64 `yaml:"discount"`

	// Epsilon is the initial probability of selecting a random action,
	// which is multiplied by EpsilonDecay after every update
	Epsilon      float64 `yaml:"epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
}

// DefaultConfig returns the hyper-parameters used to balance the
// cart-pole
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.4,
		Discount:     1.0,
		Epsilon:      0.2,
		EpsilonDecay: 0.99995,
	}
}

var (
	_ agent.Config = Config{}
	_ agent.Agent  = &QLearning{}
)

// CreateAgent creates the agent from the Config. Action values are
// always initialized to zero.
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*QLearning)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("validate: learning rate must be in (0, 1], "+
			"got %v", c.LearningRate)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1], got %v",
			c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1], "+
			"got %v", c.EpsilonDecay)
	}
	return nil
}
