// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"errors"

	ts "github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidActionShape is returned when an action does not have the
// length an environment expects. Environments must not change any of
// their state before returning this error.
var ErrInvalidActionShape = errors.New("invalid action shape")

// Starter implements a distribution of starting conditions and samples
// from it
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should end
type Ender interface {
	// End determines whether an episode should end on the argument
	// TimeStep. If so, End changes the StepType of the TimeStep to
	// timestep.Last, records the reason with SetEnd and returns true.
	End(*ts.TimeStep) bool
}

// Task implements the reward and termination scheme of an environment
type Task interface {
	Ender

	// GetReward returns the reward for the transition that resulted in
	// the argument TimeStep. End has already been applied to the
	// TimeStep, so the reward can depend on whether the transition
	// ended the episode.
	GetReward(t ts.TimeStep) float64
}

// Environment implements an episodic environment
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step and returns the resulting
	// TimeStep together with whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
}
