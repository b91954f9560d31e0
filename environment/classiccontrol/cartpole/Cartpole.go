// Package cartpole implements the Cartpole balancing problem on top of a
// continuous-time cart-pole model
package cartpole

import (
	"fmt"
	"log/slog"
	"math"

	env "github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/environment/envconfig"
	"github.com/samuelfneumann/modym/environment/fmu"
	ts "github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Upright is the pole angle, measured from the horizontal, at which
	// the pole points straight up
	Upright float64 = math.Pi / 2

	// Termination thresholds
	PositionThreshold float64 = 2.4
	AngleThreshold    float64 = 12 * math.Pi / 180

	// StartNoise is the half-width of the intervals the initial pole
	// angle and angular velocity are sampled from
	StartNoise float64 = 0.05

	// Discrete actions
	PushLeft  int = 0
	PushRight int = 1
)

// StartParameters are the model parameters sampled at the start of each
// episode, in the order the Starter samples them
var StartParameters = []string{"m_cart", "m_pole", "theta_0", "theta_dot_0"}

// Cartpole implements the cart-pole balancing task. A pole is hinged
// to a cart which moves along a horizontal track, and the agent must
// keep the pole upright by pushing the cart left or right.
//
// Observations are continuous and consist of the cart's position x and
// speed, the pole's angle from the horizontal and the pole's angular
// velocity. An angle of 90° (π/2) is upright.
//
// Actions are discrete and consist of the direction of the constant
// force applied to the cart:
//
//	Action	Meaning
//	  0		Push left with force -F
//	  1		Push right with force +F
//
// Episodes end once |x| > 2.4 or the pole is more than 12° from
// upright. Every transition is rewarded with the configured positive
// reward, except for the transition which ends the episode, which is
// rewarded with the configured negative reward.
//
// At the start of each episode, the cart and pole masses and the
// pole's initial angle and angular velocity are sampled and applied to
// the model as parameter overrides.
//
// Cartpole implements the fmu.Domain interface
type Cartpole struct {
	env.Starter
	positionLimiter env.Ender
	angleLimiter    env.Ender

	force          float64
	positiveReward float64
	negativeReward float64
}

// NewDomain returns a new Cartpole domain configured by c. The seed
// determines the sequence of starting parameters.
func NewDomain(c envconfig.Config, seed uint64) *Cartpole {
	mCart, ok := c.ModelParameters["m_cart"]
	if !ok {
		mCart = DefaultCartMass
	}
	mPole, ok := c.ModelParameters["m_pole"]
	if !ok {
		mPole = DefaultPoleMass
	}

	bounds := []r1.Interval{
		{Min: mCart, Max: mCart},
		{Min: mPole, Max: mPole},
		{Min: Upright - StartNoise, Max: Upright + StartNoise},
		{Min: -StartNoise, Max: StartNoise},
	}
	starter := env.NewUniformStarter(bounds, seed)

	positionLimiter := env.NewIntervalLimit(
		[]r1.Interval{{Min: -PositionThreshold, Max: PositionThreshold}},
		[]int{0},
		ts.TerminalStateReached,
	)

	angleLimiter := env.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return math.Abs(obs.AtVec(2)-Upright) > AngleThreshold
	}, ts.TerminalStateReached)

	return &Cartpole{
		Starter:         starter,
		positionLimiter: positionLimiter,
		angleLimiter:    angleLimiter,
		force:           c.Force,
		positiveReward:  c.PositiveReward,
		negativeReward:  c.NegativeReward,
	}
}

// New loads the cart-pole model named by c and returns a new
// environment around it, together with the first timestep of the
// first episode
func New(c envconfig.Config, seed uint64, logger *slog.Logger) (*fmu.Env,
	ts.TimeStep, error) {
	model, err := fmu.Load(c, logger)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	e, step, err := fmu.New(model, NewDomain(c, seed), c, logger)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return e, step, nil
}

// Parameters samples the starting parameters of a new episode
func (c *Cartpole) Parameters() fmu.Parameters {
	values := c.Start()
	names := make([]string, len(StartParameters))
	copy(names, StartParameters)

	return fmu.Parameters{Names: names, Values: values.RawVector().Data}
}

// DecodeAction converts a discrete action into the force applied to the
// cart. Actions greater than 0 push right and all other actions push
// left.
func (c *Cartpole) DecodeAction(a *mat.VecDense) (*mat.VecDense, error) {
	if a.Len() != 1 {
		return nil, fmt.Errorf("decodeAction: %w: expected 1 action "+
			"dimension, got %d", env.ErrInvalidActionShape, a.Len())
	}

	force := -c.force
	if a.AtVec(0) > 0 {
		force = c.force
	}
	return mat.NewVecDense(1, []float64{force}), nil
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (c *Cartpole) End(t *ts.TimeStep) bool {
	if end := c.positionLimiter.End(t); end {
		return true
	}
	if end := c.angleLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for the transition resulting in t
func (c *Cartpole) GetReward(t ts.TimeStep) float64 {
	if t.Last() {
		return c.negativeReward
	}
	return c.positiveReward
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(PushLeft)})
	upperBound := mat.NewVecDense(1, []float64{float64(PushRight)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(4, nil)

	lower := []float64{-PositionThreshold, math.Inf(-1),
		Upright - AngleThreshold, math.Inf(-1)}
	lowerBound := mat.NewVecDense(4, lower)

	upper := []float64{PositionThreshold, math.Inf(1),
		Upright + AngleThreshold, math.Inf(1)}
	upperBound := mat.NewVecDense(4, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscretizationBounds returns the finite intervals each observation
// dimension is binned over when the observations are discretized.
// Velocities are unbounded, so reasonable working ranges are used for
// them instead.
func DiscretizationBounds() []r1.Interval {
	return []r1.Interval{
		{Min: -PositionThreshold, Max: PositionThreshold},
		{Min: -1, Max: 1},
		{Min: 78 * math.Pi / 180, Max: 102 * math.Pi / 180},
		{Min: -2, Max: 2},
	}
}
