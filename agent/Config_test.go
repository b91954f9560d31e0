package agent

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

type stubAgent struct{}

func (stubAgent) Step() error                                 { return nil }
func (stubAgent) Observe(mat.Vector, timestep.TimeStep) error { return nil }
func (stubAgent) ObserveFirst(timestep.TimeStep) error        { return nil }
func (stubAgent) EndEpisode()                                 {}
func (stubAgent) SelectAction(timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, nil)
}
func (stubAgent) Eval()        {}
func (stubAgent) Train()       {}
func (stubAgent) IsEval() bool { return false }

// stubConfig counts the agents it creates
type stubConfig struct {
	invalid bool
	reject  bool
	created *int
}

func (c stubConfig) CreateAgent(environment.Environment, uint64) (Agent,
	error) {
	*c.created++
	return stubAgent{}, nil
}

func (c stubConfig) ValidAgent(Agent) bool {
	return !c.reject
}

func (c stubConfig) Validate() error {
	if c.invalid {
		return errors.New("invalid")
	}
	return nil
}

func TestNew(t *testing.T) {
	var created int

	a, err := New(stubConfig{created: &created}, nil, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.(stubAgent); !ok || created != 1 {
		t.Errorf("new returned %T after %d creations, want one stubAgent", a,
			created)
	}

	if _, err := New(stubConfig{invalid: true, created: &created}, nil,
		1); err == nil {
		t.Errorf("expected error for invalid config")
	}
	if created != 1 {
		t.Errorf("agent created from invalid config")
	}

	if _, err := New(stubConfig{reject: true, created: &created}, nil,
		1); err == nil {
		t.Errorf("expected error for agent rejected by its config")
	}
}
