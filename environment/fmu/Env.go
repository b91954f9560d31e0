package fmu

import (
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/environment/envconfig"
	ts "github.com/samuelfneumann/modym/timestep"
	"github.com/samuelfneumann/modym/utils/logging"
	"github.com/samuelfneumann/modym/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// Domain specializes an Env for a concrete system. It decodes agent
// actions into model inputs, determines when episodes end and what
// rewards are given, and supplies the initial parameters of each
// episode.
type Domain interface {
	environment.Task

	// Parameters returns the initial parameter overrides for a new
	// episode. The zero Parameters means the configured defaults are
	// used.
	Parameters() Parameters

	// DecodeAction converts an agent action into model input values,
	// one per configured input name
	DecodeAction(action *mat.VecDense) (*mat.VecDense, error)

	ObservationSpec() environment.Spec
	ActionSpec() environment.Spec
}

// Parameters are named model parameter values applied before a model
// is initialized
type Parameters struct {
	Names  []string
	Values []float64
}

// Empty returns whether no parameters are given
func (p Parameters) Empty() bool {
	return len(p.Names) == 0
}

func (p Parameters) validate() error {
	if len(p.Names) != len(p.Values) {
		return fmt.Errorf("got %d parameter names but %d values",
			len(p.Names), len(p.Values))
	}
	return nil
}

// Window is a simulation time interval [Start, Stop]
type Window struct {
	Start, Stop float64
}

// Advance returns the window of length tau following w
func (w Window) Advance(tau float64) Window {
	return Window{Start: w.Stop, Stop: w.Stop + tau}
}

// Env implements a discrete-time episodic environment on top of a
// continuous-time Model. Each call to Step simulates the model over
// one window of length time_step, and windows advance only while the
// episode continues.
//
// Env implements the environment.Environment interface
type Env struct {
	model   Model
	domain  Domain
	config  envconfig.Config
	options SimulateOptions
	logger  *slog.Logger

	window   Window
	lastStep ts.TimeStep
	done     bool
}

var _ environment.Environment = &Env{}

// New constructs a new Env around model m specialized by domain d and
// resets it. The configuration is copied, and changes made to c after
// New returns do not affect the Env. A nil logger discards all logs.
func New(m Model, d Domain, c envconfig.Config,
	logger *slog.Logger) (*Env, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: invalid config: %w", err)
	}

	obsSpec := d.ObservationSpec()
	if obsSpec.Shape.Len() != len(c.ModelOutputNames) {
		return nil, ts.TimeStep{}, fmt.Errorf("new: domain observations "+
			"have %d dimensions but %d model outputs are configured",
			obsSpec.Shape.Len(), len(c.ModelOutputNames))
	}

	e := &Env{
		model:   m,
		domain:  d,
		config:  c.Clone(),
		options: DefaultOptions(),
		logger:  logging.OrDiscard(logger).With("model", c.ModelName()),
	}

	step, err := e.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return e, step, nil
}

// Reset starts a new episode using the initial parameters supplied by
// the Domain
func (e *Env) Reset() (ts.TimeStep, error) {
	return e.ResetWith(e.domain.Parameters())
}

// ResetWith starts a new episode, initializing the model with the
// argument parameter overrides. If p is empty, the configured default
// model parameters are used instead. The model is simulated from time
// 0 to the configured start time to produce the first observation.
//
// If ResetWith fails, the Env is left done with the window and last
// timestep of the previous episode, and Reset must be called again
// before stepping.
func (e *Env) ResetWith(p Parameters) (ts.TimeStep, error) {
	if err := p.validate(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	e.logger.Debug("resetting model")

	// The model is about to lose the state of the previous episode
	e.done = true

	if err := e.model.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset model: %w",
			err)
	}

	if e.config.FMIVersion == 2 {
		if err := e.model.SetupExperiment(0); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: could not set up "+
				"experiment: %w", err)
		}
	}

	if err := e.setParameters(p); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	if err := e.model.Initialize(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not initialize "+
			"model: %w", err)
	}

	obs, err := e.simulate(Window{Start: 0, Stop: e.config.StartTime})
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	step := ts.New(ts.First, 0, obs, 0)
	e.done = e.domain.End(&step)
	e.lastStep = step
	e.window = Window{
		Start: e.config.StartTime,
		Stop:  e.config.StartTime + e.config.TimeStep,
	}

	return step, nil
}

// setParameters applies the overrides p, or the configured default
// parameters if p is empty
func (e *Env) setParameters(p Parameters) error {
	if p.Empty() {
		if len(e.config.ModelParameters) == 0 {
			return nil
		}

		p.Names = e.config.ParameterNames()
		p.Values = make([]float64, len(p.Names))
		for i, name := range p.Names {
			p.Values[i] = e.config.ModelParameters[name]
		}
	}

	e.logger.Debug("setting initial parameters", "names", p.Names,
		"values", p.Values)
	if err := e.model.Set(p.Names, p.Values); err != nil {
		return fmt.Errorf("could not set initial parameters: %w", err)
	}
	return nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
//
// If the episode has already ended, Step logs a warning and returns the
// last observation with the negative reward without simulating. If the
// decoded action does not have one value per model input, an error
// wrapping environment.ErrInvalidActionShape is returned and the Env is
// left unchanged.
func (e *Env) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if e.done {
		e.logger.Warn("step called on an episode that has already ended, " +
			"call Reset once an episode is done")

		step := ts.New(ts.Last, e.config.NegativeReward,
			mat.VecDenseCopyOf(e.lastStep.Observation), e.lastStep.Number)
		step.SetEnd(e.lastStep.EndType())
		return step, true, nil
	}

	inputs, err := e.domain.DecodeAction(a)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	names := e.config.ModelInputNames
	if inputs.Len() != len(names) {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w: model has %d "+
			"inputs but %d values were given", environment.ErrInvalidActionShape,
			len(names), inputs.Len())
	}

	values := mat.Col(nil, 0, inputs)
	e.logger.Debug("setting model inputs", "names", names, "values", values)
	if err := e.model.Set(names, values); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: could not set model "+
			"inputs: %w", err)
	}

	obs, err := e.simulate(e.window)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	step := ts.New(ts.Mid, 0, obs, e.lastStep.Number+1)
	e.done = e.domain.End(&step)
	step.Reward = e.domain.GetReward(step)

	if !e.done {
		e.window = e.window.Advance(e.config.TimeStep)
	} else {
		e.logger.Debug("episode done", "step", step.Number,
			"end", step.EndType(), "obs", matutils.Format(obs.T()))
	}
	e.lastStep = step

	return step, e.done, nil
}

// simulate simulates the model over window w and reads the configured
// outputs at the end of the window
func (e *Env) simulate(w Window) (*mat.VecDense, error) {
	start, stop := w.Start, w.Stop
	e.logger.Debug("simulating", "start", start, "stop", stop)

	result, err := e.model.Simulate(start, stop, e.options)
	if err != nil {
		return nil, &SimulationError{Start: start, Stop: stop, Wrapped: err}
	}

	outputs := e.config.ModelOutputNames
	obs := make([]float64, len(outputs))
	for i, name := range outputs {
		obs[i], err = result.Final(name)
		if err != nil {
			return nil, &SimulationError{Start: start, Stop: stop,
				Wrapped: err}
		}
	}
	return mat.NewVecDense(len(obs), obs), nil
}

// ObservationSpec returns the observation specification of the Domain
func (e *Env) ObservationSpec() environment.Spec {
	return e.domain.ObservationSpec()
}

// ActionSpec returns the action specification of the Domain
func (e *Env) ActionSpec() environment.Spec {
	return e.domain.ActionSpec()
}

// Window returns the simulation window the next step will simulate
func (e *Env) Window() Window {
	return e.window
}

// Done returns whether the current episode has ended
func (e *Env) Done() bool {
	return e.done
}

// CurrentTimeStep returns the most recent timestep of the episode
func (e *Env) CurrentTimeStep() ts.TimeStep {
	return e.lastStep
}

// Config returns a copy of the configuration of the Env
func (e *Env) Config() envconfig.Config {
	return e.config.Clone()
}
