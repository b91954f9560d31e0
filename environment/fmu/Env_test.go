package fmu

import (
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/environment/envconfig"
	ts "github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

// counterModel is a Model whose single output x increases by the input
// u over every simulated window
type counterModel struct {
	x, u        float64
	initialized bool
	failAt      float64
	failReset   bool

	calls     []string
	setups    int
	setNames  [][]string
	setValues [][]float64
	windows   []Window
}

type counterResult struct {
	x float64
}

func (r counterResult) Final(name string) (float64, error) {
	if name != "x" {
		return 0, ErrUnknownVariable
	}
	return r.x, nil
}

func (m *counterModel) Reset() error {
	m.calls = append(m.calls, "reset")
	m.x, m.u, m.initialized = 0, 0, false
	return nil
}

func (m *counterModel) SetupExperiment(float64) error {
	m.calls = append(m.calls, "setup")
	m.setups++
	return nil
}

func (m *counterModel) Initialize() error {
	m.calls = append(m.calls, "initialize")
	m.initialized = true
	return nil
}

func (m *counterModel) Set(names []string, values []float64) error {
	m.calls = append(m.calls, "set")
	m.setNames = append(m.setNames, append([]string(nil), names...))
	m.setValues = append(m.setValues, append([]float64(nil), values...))
	for i, name := range names {
		switch name {
		case "x_0":
			m.x = values[i]
		case "u":
			m.u = values[i]
		}
	}
	return nil
}

func (m *counterModel) Simulate(start, stop float64,
	_ SimulateOptions) (Result, error) {
	m.calls = append(m.calls, "simulate")
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if m.failReset && start == 0 {
		return nil, errors.New("initial simulation failed")
	}
	if m.failAt > 0 && start >= m.failAt {
		return nil, errors.New("solver diverged")
	}
	m.windows = append(m.windows, Window{start, stop})
	if stop > start {
		m.x += m.u
	}
	return counterResult{m.x}, nil
}

// counterDomain ends episodes once |x| exceeds a limit
type counterDomain struct {
	limit  float64
	params Parameters
	pos    float64
	neg    float64
}

func (d *counterDomain) End(t *ts.TimeStep) bool {
	if math.Abs(t.Observation.AtVec(0)) > d.limit {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return false
}

func (d *counterDomain) GetReward(t ts.TimeStep) float64 {
	if t.Last() {
		return d.neg
	}
	return d.pos
}

func (d *counterDomain) Parameters() Parameters {
	return d.params
}

// DecodeAction passes actions through unchanged so that tests can send
// input vectors of any length
func (d *counterDomain) DecodeAction(a *mat.VecDense) (*mat.VecDense,
	error) {
	return a, nil
}

func (d *counterDomain) ObservationSpec() environment.Spec {
	bounds := mat.NewVecDense(1, []float64{d.limit})
	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Observation,
		bounds, bounds, environment.Continuous)
}

func (d *counterDomain) ActionSpec() environment.Spec {
	bounds := mat.NewVecDense(1, []float64{1})
	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Action,
		bounds, bounds, environment.Continuous)
}

func counterConfig() envconfig.Config {
	c := envconfig.Default()
	c.ModelPath = "models/Counter_CS.fmu"
	c.TimeStep = 0.5
	c.StartTime = 1
	c.ModelParameters = map[string]float64{"x_0": 0}
	c.ModelInputNames = []string{"u"}
	c.ModelOutputNames = []string{"x"}
	return c
}

func newCounterEnv(t *testing.T, m *counterModel, d *counterDomain,
	c envconfig.Config) *Env {
	t.Helper()
	env, _, err := New(m, d, c, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return env
}

func action(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestResetSequence(t *testing.T) {
	tests := []struct {
		version int
		want    []string
	}{
		{2, []string{"reset", "setup", "set", "initialize", "simulate"}},
		{1, []string{"reset", "set", "initialize", "simulate"}},
	}

	for _, test := range tests {
		m := &counterModel{}
		c := counterConfig()
		c.FMIVersion = test.version

		env := newCounterEnv(t, m, &counterDomain{limit: 2}, c)
		if len(m.calls) != len(test.want) {
			t.Fatalf("fmi %d: calls = %v, want %v", test.version, m.calls,
				test.want)
		}
		for i := range test.want {
			if m.calls[i] != test.want[i] {
				t.Errorf("fmi %d: calls = %v, want %v", test.version, m.calls,
					test.want)
				break
			}
		}

		if m.windows[0] != (Window{0, 1}) {
			t.Errorf("initial simulation window = %v, want [0, 1]",
				m.windows[0])
		}
		if w := env.Window(); w != (Window{1, 1.5}) {
			t.Errorf("window after reset = %v, want [1, 1.5]", w)
		}
	}
}

func TestResetParameters(t *testing.T) {
	m := &counterModel{}
	d := &counterDomain{limit: 10}
	c := counterConfig()
	c.ModelParameters = map[string]float64{"x_0": 3}

	// No overrides, so defaults from the configuration are used
	env := newCounterEnv(t, m, d, c)
	if got := env.CurrentTimeStep().Observation.AtVec(0); got != 3 {
		t.Errorf("initial x with defaults = %v, want 3", got)
	}

	// Overrides replace the defaults entirely
	step, err := env.ResetWith(Parameters{Names: []string{"x_0"},
		Values: []float64{-4}})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := step.Observation.AtVec(0); got != -4 {
		t.Errorf("initial x with overrides = %v, want -4", got)
	}
	if !step.First() || step.Number != 0 {
		t.Errorf("reset returned %v, want first step 0", step)
	}

	last := m.setNames[len(m.setNames)-1]
	if len(last) != 1 || last[0] != "x_0" {
		t.Errorf("set names = %v, want [x_0]", last)
	}

	if _, err := env.ResetWith(Parameters{Names: []string{"x_0"}}); err == nil {
		t.Errorf("expected error for parameters without values")
	}
}

func TestStepAdvancesWindow(t *testing.T) {
	m := &counterModel{}
	c := counterConfig()
	env := newCounterEnv(t, m, &counterDomain{limit: 2, pos: 1, neg: -100}, c)

	for i := 1; i <= 2; i++ {
		before := env.Window()
		step, done, err := env.Step(action(1))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if done {
			t.Fatalf("step %d: episode ended early", i)
		}
		if step.Reward != 1 || step.Number != i || !step.Mid() {
			t.Errorf("step %d: got %v", i, step)
		}

		want := Window{before.Stop, before.Stop + c.TimeStep}
		if w := env.Window(); w != want {
			t.Errorf("step %d: window = %v, want %v", i, w, want)
		}
	}

	// x becomes 3 > 2, so the episode ends and the window stays put
	before := env.Window()
	step, done, err := env.Step(action(1))
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !done || !step.Last() || step.Reward != -100 {
		t.Errorf("terminal step = %v (done %v), want last with -100", step,
			done)
	}
	if step.EndType() != ts.TerminalStateReached {
		t.Errorf("end type = %v, want %v", step.EndType(),
			ts.TerminalStateReached)
	}
	if w := env.Window(); w != before {
		t.Errorf("window advanced on terminal step: %v, want %v", w, before)
	}
}

func TestStepAfterDone(t *testing.T) {
	m := &counterModel{}
	c := counterConfig()
	c.NegativeReward = -7

	// The degraded reward comes from the configuration, not the domain
	env := newCounterEnv(t, m, &counterDomain{limit: 0.5, pos: 1, neg: -3}, c)

	terminal, done, err := env.Step(action(1))
	if err != nil || !done {
		t.Fatalf("expected terminal step, got done %v, err %v", done, err)
	}

	simulations := len(m.windows)
	window := env.Window()

	// Termination is monotone: once done, every further step is done
	for i := 0; i < 3; i++ {
		step, done, err := env.Step(action(-1))
		if err != nil {
			t.Fatalf("step after done: %v", err)
		}
		if !done || step.Reward != c.NegativeReward {
			t.Errorf("step after done = %v (done %v), want done with %v",
				step, done, c.NegativeReward)
		}
		if !mat.Equal(step.Observation, terminal.Observation) {
			t.Errorf("observation changed after done: %v, want %v",
				mat.Formatted(step.Observation.T()),
				mat.Formatted(terminal.Observation.T()))
		}
	}

	if len(m.windows) != simulations {
		t.Errorf("model simulated after the episode ended")
	}
	if env.Window() != window {
		t.Errorf("window changed after the episode ended")
	}

	// Reset starts a new steppable episode
	if _, err := env.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if env.Done() {
		t.Errorf("episode done after reset")
	}
}

func TestResetFailure(t *testing.T) {
	m := &counterModel{}
	env := newCounterEnv(t, m, &counterDomain{limit: 10, pos: 1}, counterConfig())
	if _, _, err := env.Step(action(1)); err != nil {
		t.Fatalf("step: %v", err)
	}

	window := env.Window()
	last := env.CurrentTimeStep()

	m.failReset = true
	var simErr *SimulationError
	if _, err := env.Reset(); !errors.As(err, &simErr) {
		t.Fatalf("err = %v, want a *SimulationError", err)
	}

	// The failed reset leaves the previous episode's state but the Env
	// cannot be stepped until it is reset
	if !env.Done() {
		t.Errorf("env not done after a failed reset")
	}
	if env.Window() != window {
		t.Errorf("window = %v after a failed reset, want %v", env.Window(),
			window)
	}
	if env.CurrentTimeStep().Number != last.Number {
		t.Errorf("last timestep changed after a failed reset")
	}

	simulations := len(m.windows)
	step, done, err := env.Step(action(1))
	if err != nil || !done || !step.Last() {
		t.Errorf("step after failed reset = %v, %v, %v, want a done step",
			step, done, err)
	}
	if len(m.windows) != simulations {
		t.Errorf("model simulated after a failed reset")
	}

	m.failReset = false
	step, err = env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if env.Done() || !step.First() {
		t.Errorf("reset after a failed reset did not start a new episode")
	}
	if want := (Window{Start: 1, Stop: 1.5}); env.Window() != want {
		t.Errorf("window = %v, want %v", env.Window(), want)
	}
}

func TestStepInvalidActionShape(t *testing.T) {
	m := &counterModel{}
	env := newCounterEnv(t, m, &counterDomain{limit: 2}, counterConfig())

	calls := len(m.calls)
	window := env.Window()
	last := env.CurrentTimeStep()

	_, _, err := env.Step(action(1, 1))
	if !errors.Is(err, environment.ErrInvalidActionShape) {
		t.Fatalf("err = %v, want %v", err, environment.ErrInvalidActionShape)
	}

	if len(m.calls) != calls {
		t.Errorf("model was called after an invalid action: %v",
			m.calls[calls:])
	}
	if env.Window() != window || env.Done() {
		t.Errorf("state changed after an invalid action")
	}
	if env.CurrentTimeStep().Number != last.Number {
		t.Errorf("step number changed after an invalid action")
	}
}

func TestSimulationError(t *testing.T) {
	m := &counterModel{failAt: 1.5}
	env := newCounterEnv(t, m, &counterDomain{limit: 10}, counterConfig())

	if _, _, err := env.Step(action(1)); err != nil {
		t.Fatalf("step: %v", err)
	}

	_, _, err := env.Step(action(1))
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("err = %v, want a *SimulationError", err)
	}
	if simErr.Start != 1.5 || simErr.Stop != 2 {
		t.Errorf("failed window = [%v, %v], want [1.5, 2]", simErr.Start,
			simErr.Stop)
	}
}

func TestNewValidation(t *testing.T) {
	c := counterConfig()
	c.ModelOutputNames = []string{"x", "y"}
	if _, _, err := New(&counterModel{}, &counterDomain{limit: 1}, c,
		nil); err == nil {
		t.Errorf("expected error for mismatched observation dimensions")
	}

	c = counterConfig()
	c.TimeStep = 0
	if _, _, err := New(&counterModel{}, &counterDomain{limit: 1}, c,
		nil); err == nil {
		t.Errorf("expected error for invalid config")
	}
}

func TestConfigIsCopied(t *testing.T) {
	c := counterConfig()
	env := newCounterEnv(t, &counterModel{}, &counterDomain{limit: 2}, c)

	c.ModelInputNames[0] = "v"
	if name := env.Config().ModelInputNames[0]; name != "u" {
		t.Errorf("input name = %v, want u", name)
	}
}

func TestModelID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"cartpole/models/ModelicaGym_CartPole_CS.fmu", "ModelicaGym_CartPole"},
		{"ModelicaGym_CartPole_ME.fmu", "ModelicaGym_CartPole"},
		{"/abs/path/Pendulum.fmu", "Pendulum"},
		{"Model", "Model"},
	}

	for _, test := range tests {
		if got := ModelID(test.path); got != test.want {
			t.Errorf("ModelID(%q) = %q, want %q", test.path, got, test.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	Register("Counter", func(envconfig.Config, *slog.Logger) (Model, error) {
		return &counterModel{}, nil
	})
	defer delete(registeredModels, "Counter")

	m, err := Load(counterConfig(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := m.(*counterModel); !ok {
		t.Errorf("loaded %T, want *counterModel", m)
	}

	c := counterConfig()
	c.ModelPath = "Missing_CS.fmu"
	if _, err := Load(c, nil); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want %v", err, ErrUnknownModel)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on duplicate registration")
		}
	}()
	Register("Counter", nil)
}
