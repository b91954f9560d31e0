package agent

import (
	"fmt"

	"github.com/samuelfneumann/modym/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}

// New validates c, creates the agent it describes for env and ensures
// that the created agent is one c accepts
func New(c Config, env environment.Environment, seed uint64) (Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	a, err := c.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if !c.ValidAgent(a) {
		return nil, fmt.Errorf("new: config %T created invalid agent %T", c, a)
	}
	return a, nil
}
