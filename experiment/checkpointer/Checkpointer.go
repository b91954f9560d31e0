// Package checkpointer implements saving objects during an experiment
package checkpointer

import (
	ts "github.com/samuelfneumann/modym/timestep"
)

// Saveable is an object that can be saved to a file
type Saveable interface {
	Save(path string) error
}

// Checkpointer checkpoints/saves objects based on timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
