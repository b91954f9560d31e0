package cartpole

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/samuelfneumann/modym/environment/envconfig"
	"github.com/samuelfneumann/modym/environment/fmu"
	"github.com/samuelfneumann/modym/utils/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ModelName is the name the cart-pole model is registered under
const ModelName = "ModelicaGym_CartPole"

const (
	// Default physical parameters
	DefaultCartMass   float64 = 10.0
	DefaultPoleMass   float64 = 1.0
	DefaultPoleLength float64 = 1.0
	DefaultGravity    float64 = 9.81
)

// Model variables
const (
	position = iota
	speed
	angle
	angularVelocity
	numStates
)

var outputNames = [numStates]string{"x", "x_dot", "theta", "theta_dot"}

func init() {
	fmu.Register(ModelName, func(c envconfig.Config,
		logger *slog.Logger) (fmu.Model, error) {
		return NewModel(logger), nil
	})
}

// Model implements a continuous-time cart-pole model, exposed through
// the fmu.Model interface.
//
// The model has the parameters:
//
//	Parameter	Meaning
//	  m_cart		Mass of the cart
//	  m_pole		Mass of the pole
//	  l			Length of the pole
//	  g			Gravitational acceleration
//	  x_0		Initial cart position
//	  x_dot_0		Initial cart speed
//	  theta_0		Initial pole angle from the horizontal
//	  theta_dot_0	Initial pole angular velocity
//
// a single input f, the horizontal force on the cart, and the outputs
// x, x_dot, theta and theta_dot. The pole angle is measured from the
// horizontal so that π/2 is upright. Parameters can only be set before
// the model is initialized.
//
// Simulate integrates the equations of motion with the classic
// fourth-order Runge-Kutta method, taking NCP steps per call.
type Model struct {
	params      map[string]float64
	force       float64
	state       [numStates]float64
	time        float64
	initialized bool
	logger      *slog.Logger
}

// NewModel returns a new cart-pole Model with default parameters
func NewModel(logger *slog.Logger) *Model {
	m := &Model{logger: logging.OrDiscard(logger)}
	m.Reset()
	return m
}

func defaultParameters() map[string]float64 {
	return map[string]float64{
		"m_cart":      DefaultCartMass,
		"m_pole":      DefaultPoleMass,
		"l":           DefaultPoleLength,
		"g":           DefaultGravity,
		"x_0":         0,
		"x_dot_0":     0,
		"theta_0":     Upright,
		"theta_dot_0": 0,
	}
}

// Reset restores the model to its uninitialized state with default
// parameters
func (m *Model) Reset() error {
	m.params = defaultParameters()
	m.force = 0
	m.state = [numStates]float64{}
	m.time = 0
	m.initialized = false
	return nil
}

// SetupExperiment sets the time the model starts at
func (m *Model) SetupExperiment(startTime float64) error {
	if m.initialized {
		return fmt.Errorf("setupExperiment: model already initialized")
	}
	m.time = startTime
	return nil
}

// Initialize sets the model state from the initial condition
// parameters
func (m *Model) Initialize() error {
	if m.params["m_cart"] <= 0 || m.params["m_pole"] <= 0 ||
		m.params["l"] <= 0 {
		return fmt.Errorf("initialize: masses and pole length must be "+
			"positive, got m_cart=%v, m_pole=%v, l=%v", m.params["m_cart"],
			m.params["m_pole"], m.params["l"])
	}

	m.state = [numStates]float64{
		m.params["x_0"],
		m.params["x_dot_0"],
		m.params["theta_0"],
		m.params["theta_dot_0"],
	}
	m.initialized = true
	return nil
}

// Set sets the values of named parameters or inputs. Either all values
// are set or, if an error is returned, none are.
func (m *Model) Set(names []string, values []float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("set: got %d names but %d values", len(names),
			len(values))
	}

	for _, name := range names {
		if name == "f" {
			continue
		}
		if _, ok := m.params[name]; !ok {
			return fmt.Errorf("set: %w %q", fmu.ErrUnknownVariable, name)
		}
		if m.initialized {
			return fmt.Errorf("set: parameter %q cannot be changed after "+
				"initialization", name)
		}
	}

	for i, name := range names {
		if name == "f" {
			m.force = values[i]
		} else {
			m.params[name] = values[i]
		}
	}
	return nil
}

// Simulate integrates the model from start to stop under the current
// input and returns the trajectory at opts.NCP+1 evenly spaced
// communication points
func (m *Model) Simulate(start, stop float64,
	opts fmu.SimulateOptions) (fmu.Result, error) {
	if opts.Initialize {
		if err := m.Initialize(); err != nil {
			return nil, fmt.Errorf("simulate: %w", err)
		}
	}
	if !m.initialized {
		return nil, fmt.Errorf("simulate: %w", fmu.ErrNotInitialized)
	}
	if stop < start {
		return nil, fmt.Errorf("simulate: stop time %v before start time %v",
			stop, start)
	}
	if opts.ResultHandling != "" && opts.ResultHandling != fmu.InMemory {
		return nil, fmt.Errorf("simulate: unsupported result handling %q",
			opts.ResultHandling)
	}

	ncp := opts.NCP
	if ncp < 1 {
		ncp = 1
	}
	h := (stop - start) / float64(ncp)

	trajectory := mat.NewDense(ncp+1, numStates, nil)
	trajectory.SetRow(0, m.state[:])
	state := m.state
	for i := 1; i <= ncp; i++ {
		if h > 0 {
			state = m.rk4(state, h)
		}
		if !finite(state[:]) {
			return nil, fmt.Errorf("simulate: state diverged at t=%v: %v",
				start+float64(i)*h, state)
		}
		trajectory.SetRow(i, state[:])
	}

	m.state = state
	m.time = stop
	if !opts.Silent {
		m.logger.Debug("simulated cart-pole", "start", start, "stop", stop,
			"force", m.force, "state", state)
	}

	return &Result{trajectory}, nil
}

// rk4 takes a single fourth-order Runge-Kutta step of size h
func (m *Model) rk4(s [numStates]float64, h float64) [numStates]float64 {
	k1 := m.derivative(s)
	k2 := m.derivative(offset(s, k1, h/2))
	k3 := m.derivative(offset(s, k2, h/2))
	k4 := m.derivative(offset(s, k3, h))

	var next [numStates]float64
	for i := range next {
		next[i] = s[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return next
}

// derivative returns the time derivative of the state s under the
// current input force.
//
// The equations of motion are those of the classic cart-pole with a
// uniform pole, written for the angle from the vertical α = π/2 - θ.
func (m *Model) derivative(s [numStates]float64) [numStates]float64 {
	mCart, mPole := m.params["m_cart"], m.params["m_pole"]
	halfLength := m.params["l"] / 2
	g := m.params["g"]
	totalMass := mCart + mPole

	// sin(π/2 - θ) = cos(θ) and cos(π/2 - θ) = sin(θ)
	sinAlpha := math.Cos(s[angle])
	cosAlpha := math.Sin(s[angle])
	alphaDot := -s[angularVelocity]

	temp := (m.force + mPole*halfLength*alphaDot*alphaDot*sinAlpha) /
		totalMass
	alphaAcc := (g*sinAlpha - cosAlpha*temp) /
		(halfLength * (4.0/3.0 - mPole*cosAlpha*cosAlpha/totalMass))
	xAcc := temp - mPole*halfLength*alphaAcc*cosAlpha/totalMass

	return [numStates]float64{s[speed], xAcc, s[angularVelocity], -alphaAcc}
}

func offset(s, ds [numStates]float64, h float64) [numStates]float64 {
	var out [numStates]float64
	for i := range out {
		out[i] = s[i] + h*ds[i]
	}
	return out
}

func finite(s []float64) bool {
	return !floats.HasNaN(s) && !math.IsInf(floats.Max(s), 1) &&
		!math.IsInf(floats.Min(s), -1)
}

// Result holds the trajectory of a single simulation, one row per
// communication point
type Result struct {
	trajectory *mat.Dense
}

// Final returns the value of the named output at the end of the
// simulated interval
func (r *Result) Final(name string) (float64, error) {
	rows, _ := r.trajectory.Dims()
	for i, output := range outputNames {
		if output == name {
			return r.trajectory.At(rows-1, i), nil
		}
	}
	return 0, fmt.Errorf("final: %w %q", fmu.ErrUnknownVariable, name)
}

// Trajectory returns the values of the named output at every
// communication point
func (r *Result) Trajectory(name string) ([]float64, error) {
	for i, output := range outputNames {
		if output == name {
			return mat.Col(nil, i, r.trajectory), nil
		}
	}
	return nil, fmt.Errorf("trajectory: %w %q", fmu.ErrUnknownVariable,
		name)
}
