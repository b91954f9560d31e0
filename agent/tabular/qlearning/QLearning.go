// Package qlearning implements the tabular Q-Learning algorithm with an
// ε-greedy behaviour policy
package qlearning

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/timestep"
	"gonum.org/v1/gonum/mat"
)

// QLearning implements tabular Q-Learning. Observations must be
// single-element vectors holding a state index, as produced by the
// wrappers.Discretize environment, and actions are discrete.
//
// After every transition the action value of the state and action taken
// is moved towards the one-step target:
//
//	Q(s, a) <- (1 - α) Q(s, a) + α (r + γ max_a' Q(s', a'))
//
// and ε is multiplied by the decay rate. In evaluation mode, actions
// are selected greedily and no updates are made.
type QLearning struct {
	table   *QTable
	config  Config
	epsilon float64
	rng     *rand.Rand
	eval    bool

	// Most recent transition
	step          timestep.TimeStep
	action        int
	nextStep      timestep.TimeStep
	hasTransition bool
}

// New creates a new QLearning agent acting in env. The environment
// must have 1-dimensional discrete observations and actions, both
// enumerated from 0.
func New(env environment.Environment, c Config,
	seed uint64) (*QLearning, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	states, err := env.ObservationSpec().NumDiscrete()
	if err != nil {
		return nil, fmt.Errorf("new: observations: %w", err)
	}
	actions, err := env.ActionSpec().NumDiscrete()
	if err != nil {
		return nil, fmt.Errorf("new: actions: %w", err)
	}

	return &QLearning{
		table:   NewQTable(states, actions),
		config:  c,
		epsilon: c.Epsilon,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// SelectAction selects an action from the ε-greedy policy. With
// probability ε a uniformly random action is selected, and otherwise
// the action with the largest value, preferring lower actions on ties.
func (q *QLearning) SelectAction(t timestep.TimeStep) *mat.VecDense {
	state := stateIndex(t)
	_, actions := q.table.Dims()

	var action int
	if !q.eval && q.rng.Float64() < q.epsilon {
		action = q.rng.Intn(actions)
	} else {
		action = q.table.Greedy(state)
	}
	return mat.NewVecDense(1, []float64{float64(action)})
}

// ObserveFirst observes and records the first episodic timestep
func (q *QLearning) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observeFirst: timestep %d is not the first in "+
			"its episode", t.Number)
	}
	q.step = timestep.TimeStep{}
	q.nextStep = t
	q.hasTransition = false
	return nil
}

// Observe observes and records any timestep other than the first
// timestep
func (q *QLearning) Observe(action mat.Vector, nextStep timestep.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: %w: tabular actions must be "+
			"1-dimensional, got %d dimensions", environment.ErrInvalidActionShape,
			action.Len())
	}
	if q.nextStep.Observation == nil {
		return fmt.Errorf("observe: no first timestep observed")
	}

	q.step = q.nextStep
	q.action = int(action.AtVec(0))
	q.nextStep = nextStep
	q.hasTransition = true
	return nil
}

// Step updates the action value of the most recently observed
// transition and decays ε. Step does nothing in evaluation mode.
func (q *QLearning) Step() error {
	if q.eval {
		return nil
	}
	if !q.hasTransition {
		return fmt.Errorf("step: no transition observed")
	}

	state, nextState := stateIndex(q.step), stateIndex(q.nextStep)
	α, γ := q.config.LearningRate, q.config.Discount

	target := q.nextStep.Reward + γ*q.table.Max(nextState)
	old := q.table.At(state, q.action)
	q.table.Set(state, q.action, (1-α)*old+α*target)

	q.epsilon *= q.config.EpsilonDecay
	q.hasTransition = false
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (q *QLearning) EndEpisode() {
	q.hasTransition = false
}

// Eval sets the agent to evaluation mode
func (q *QLearning) Eval() {
	q.eval = true
}

// Train sets the agent to training mode
func (q *QLearning) Train() {
	q.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (q *QLearning) IsEval() bool {
	return q.eval
}

// Epsilon returns the current probability of selecting a random action
// in training mode
func (q *QLearning) Epsilon() float64 {
	return q.epsilon
}

// Table returns the action values of the agent. Changes to the
// returned table change the agent's policy.
func (q *QLearning) Table() *QTable {
	return q.table
}

// SetTable replaces the action values of the agent. The table must
// have the same number of states and actions as the agent's current
// table, otherwise an error wrapping ErrPolicyShape is returned and the
// agent is unchanged.
func (q *QLearning) SetTable(t *QTable) error {
	states, actions := q.table.Dims()
	newStates, newActions := t.Dims()
	if states != newStates || actions != newActions {
		return fmt.Errorf("setTable: %w: got %d x %d table, want %d x %d",
			ErrPolicyShape, newStates, newActions, states, actions)
	}
	q.table = t
	return nil
}

// LoadTable replaces the action values of the agent with the policy
// stored at path. On any error, the agent is unchanged.
func (q *QLearning) LoadTable(path string) error {
	states, actions := q.table.Dims()
	t, err := Load(path, states, actions)
	if err != nil {
		return fmt.Errorf("loadTable: %w", err)
	}
	return q.SetTable(t)
}

func stateIndex(t timestep.TimeStep) int {
	return int(t.Observation.AtVec(0))
}
