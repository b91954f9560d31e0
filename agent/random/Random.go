// Package random implements an agent which selects actions uniformly
// at random and never learns
package random

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/modym/agent"
	"github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

// Random selects discrete actions uniformly at random. It is used to
// smoke test environments.
type Random struct {
	actions int
	rng     *rand.Rand
	eval    bool
}

// New returns a new Random agent for the discrete actions of env
func New(env environment.Environment, seed uint64) (*Random, error) {
	actions, err := env.ActionSpec().NumDiscrete()
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return &Random{actions: actions, rng: rand.New(rand.NewSource(seed))},
		nil
}

// SelectAction selects a uniformly random action
func (r *Random) SelectAction(timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(r.rng.Intn(r.actions))})
}

func (r *Random) Step() error                                 { return nil }
func (r *Random) Observe(mat.Vector, timestep.TimeStep) error { return nil }
func (r *Random) ObserveFirst(timestep.TimeStep) error        { return nil }
func (r *Random) EndEpisode()                                 {}

// Eval sets the agent to evaluation mode. Random agents act the same in
// either mode.
func (r *Random) Eval()        { r.eval = true }
func (r *Random) Train()       { r.eval = false }
func (r *Random) IsEval() bool { return r.eval }

// Config creates Random agents
type Config struct{}

// CreateAgent creates a new Random agent
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env, seed)
}

// ValidAgent returns whether the argument agent is a Random agent
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*Random)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	return nil
}
