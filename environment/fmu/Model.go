// Package fmu adapts stateful, continuous-time simulation models,
// exposed through the functional mock-up interface, into discrete-time
// episodic environments.
//
// A Model owns the continuous-time state. Env drives it through fixed
// simulation windows of length time_step and delegates action decoding,
// termination and rewards to a Domain.
package fmu

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by models asked to simulate before
	// they have been initialized
	ErrNotInitialized = errors.New("fmu: model not initialized")

	// ErrUnknownVariable is returned by models asked to set or read a
	// variable they do not define
	ErrUnknownVariable = errors.New("fmu: unknown model variable")

	// ErrUnknownModel is returned by Load when no model is registered
	// under the name derived from the model path
	ErrUnknownModel = errors.New("fmu: unknown model")
)

// Result holds the outcome of a single simulation call
type Result interface {
	// Final returns the value of the named variable at the end of the
	// simulated interval
	Final(name string) (float64, error)
}

// Model is the client of a continuous-time simulation engine.
//
// The calling sequence for every episode is Reset, SetupExperiment
// (FMI 2 only), Set for initial parameters, Initialize, and then any
// number of Set/Simulate pairs. Simulate blocks until the engine has
// advanced over the whole interval.
type Model interface {
	Reset() error
	SetupExperiment(startTime float64) error
	Initialize() error
	Set(names []string, values []float64) error
	Simulate(start, stop float64, opts SimulateOptions) (Result, error)
}

// ResultHandling determines where a model keeps its simulation results
type ResultHandling string

const (
	InMemory ResultHandling = "memory"
	ToFile   ResultHandling = "file"
)

// SimulateOptions configures a single call to Model.Simulate
type SimulateOptions struct {
	// NCP is the number of communication points (samples) per call
	NCP int

	// Initialize determines whether the model initializes itself
	// before simulating. Env initializes models explicitly on reset, so
	// this is false for every Simulate call Env makes.
	Initialize bool

	// Silent suppresses the model's own logging
	Silent bool

	ResultHandling ResultHandling
	ResultFile     string
}

// DefaultOptions returns the options Env simulates with
func DefaultOptions() SimulateOptions {
	return SimulateOptions{
		NCP:            50,
		Initialize:     false,
		Silent:         true,
		ResultHandling: InMemory,
		ResultFile:     "./trash/result.txt",
	}
}

// SimulationError wraps an error returned by a Model while simulating
// a window. Simulation errors are fatal for the episode and are never
// retried.
type SimulationError struct {
	Start, Stop float64
	Wrapped     error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("fmu: simulation of [%v, %v] failed: %v", e.Start,
		e.Stop, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
