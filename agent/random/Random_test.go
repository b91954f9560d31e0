package random

import (
	"testing"

	"github.com/samuelfneumann/modym/environment"
	ts "github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

type discreteEnv struct{}

func (discreteEnv) Reset() (ts.TimeStep, error) {
	return ts.TimeStep{}, nil
}

func (discreteEnv) Step(*mat.VecDense) (ts.TimeStep, bool, error) {
	return ts.TimeStep{}, true, nil
}

func (discreteEnv) ObservationSpec() environment.Spec {
	return environment.NewSpec(mat.NewVecDense(1, nil),
		environment.Observation, mat.NewVecDense(1, nil),
		mat.NewVecDense(1, nil), environment.Continuous)
}

func (discreteEnv) ActionSpec() environment.Spec {
	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Action,
		mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{2}),
		environment.Discrete)
}

func TestSelectAction(t *testing.T) {
	r, err := Config{}.CreateAgent(discreteEnv{}, 11)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[float64]bool)
	for i := 0; i < 300; i++ {
		a := r.SelectAction(ts.TimeStep{}).AtVec(0)
		if a < 0 || a > 2 {
			t.Fatalf("action %v out of range", a)
		}
		seen[a] = true
	}
	if len(seen) != 3 {
		t.Errorf("selected actions %v, want all of 0, 1 and 2", seen)
	}
}
