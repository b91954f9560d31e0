// Package wrappers provides wrappers for environments
package wrappers

import (
	"fmt"

	env "github.com/samuelfneumann/modym/environment"
	ts "github.com/samuelfneumann/modym/timestep"
	"github.com/samuelfneumann/modym/utils/matutils/discretizer"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Discretize wraps an environment with continuous observations and
// replaces each observation with the single-element vector [index],
// where index is the table index of the observation's bins. See
// discretizer.Discretizer for how indices are computed.
//
// Discretize itself implements the environment.Environment interface
// and is therefore itself an environment.
type Discretize struct {
	env.Environment
	discretizer *discretizer.Discretizer

	currentTimeStep ts.TimeStep
}

// NewDiscretize returns a new Discretize environment wrapping e. Each
// observation dimension i is split into bins bins over bounds[i].
func NewDiscretize(e env.Environment, bounds []r1.Interval,
	bins int) (*Discretize, error) {
	obsDims := e.ObservationSpec().Shape.Len()
	if len(bounds) != obsDims {
		return nil, fmt.Errorf("newDiscretize: got %d bounds for %d "+
			"observation dimensions", len(bounds), obsDims)
	}

	d, err := discretizer.New(bounds, bins)
	if err != nil {
		return nil, fmt.Errorf("newDiscretize: %w", err)
	}

	return &Discretize{Environment: e, discretizer: d}, nil
}

// Reset resets the environment to some starting state
func (d *Discretize) Reset() (ts.TimeStep, error) {
	step, err := d.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}

	step.Observation = d.getObs(step.Observation)
	d.currentTimeStep = step

	return step, nil
}

// Step takes one environmental step given some action
func (d *Discretize) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	step, done, err := d.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, done, err
	}

	step.Observation = d.getObs(step.Observation)
	d.currentTimeStep = step

	return step, done, nil
}

// CurrentTimeStep returns the current time step in the environment
func (d *Discretize) CurrentTimeStep() ts.TimeStep {
	return d.currentTimeStep
}

// Index returns the table index of a continuous observation
func (d *Discretize) Index(obs mat.Vector) int {
	return d.discretizer.Index(obs)
}

// NumStates returns the number of distinct observations
func (d *Discretize) NumStates() int {
	return d.discretizer.NumStates()
}

func (d *Discretize) getObs(obs *mat.VecDense) *mat.VecDense {
	index := d.discretizer.Index(obs)
	return mat.NewVecDense(1, []float64{float64(index)})
}

// ObservationSpec returns the observation specification of the
// environment
func (d *Discretize) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{float64(d.NumStates() - 1)})

	return env.NewSpec(shape, env.Observation, low, high, env.Discrete)
}

// String returns the string representation of the environment
func (d *Discretize) String() string {
	return fmt.Sprintf("Discretize: %v", d.Environment)
}
