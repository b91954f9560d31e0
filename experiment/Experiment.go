// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/modym/experiment/checkpointer"
	"github.com/samuelfneumann/modym/experiment/tracker"
)

// Experiment outlines structs that can run experiments. Experiments
// send every environment TimeStep to their Trackers, which cache the
// data they need to be later saved to disk with Save(). The Run()
// method runs all episodes of the experiment and the RunEpisode()
// method runs a single episode.
type Experiment interface {
	Run() error

	// RunEpisode runs a single episode and returns its length in steps
	RunEpisode() (int, error)

	// Save all tracked data to disk
	Save() error

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment. Useful if you want to track data only after
	// a specified event.
	Register(t tracker.Tracker)

	// AddCheckpointer adds a new checkpointer.Checkpointer to the
	// experiment
	AddCheckpointer(c checkpointer.Checkpointer)
}

// Config configures an Episodic experiment
type Config struct {
	// Episodes is the number of episodes to run
	Episodes int `yaml:"episodes"`

	// MaxSteps caps the length of each episode
	MaxSteps int `yaml:"max_steps"`

	// CapBonus replaces the reward of the transition that reaches
	// MaxSteps without the environment ending the episode. A nil
	// CapBonus leaves rewards unchanged.
	CapBonus *float64 `yaml:"cap_bonus"`
}

// Bonus returns a CapBonus of r
func Bonus(r float64) *float64 {
	return &r
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Episodes < 1 {
		return fmt.Errorf("validate: episodes must be positive, got %d",
			c.Episodes)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("validate: max steps must be positive, got %d",
			c.MaxSteps)
	}
	return nil
}
