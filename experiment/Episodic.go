package experiment

import (
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/modym/agent"
	env "github.com/samuelfneumann/modym/environment"
	"github.com/samuelfneumann/modym/experiment/checkpointer"
	"github.com/samuelfneumann/modym/experiment/tracker"
	ts "github.com/samuelfneumann/modym/timestep"
	"github.com/samuelfneumann/modym/utils/logging"
	"github.com/samuelfneumann/modym/utils/progressbar"
)

// Episodic is an Experiment that runs an agent online for a fixed
// number of episodes, each capped at a maximum number of steps. If the
// agent is in evaluation mode, it acts greedily and does not learn.
//
// Each episode runs the agent-environment loop until the environment
// ends the episode or the step cap is reached. When the cap ends an
// episode, the reward of its last transition is replaced by the
// configured bonus before the agent observes it.
type Episodic struct {
	env.Environment
	agent.Agent
	config    Config
	stepLimit *env.StepLimit
	episode   int

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	logger        *slog.Logger
	progress      *progressbar.ManualProgressBar
}

var _ Experiment = &Episodic{}

// NewEpisodic creates and returns a new episodic experiment on a given
// environment with a given agent. A nil logger discards all logs.
func NewEpisodic(e env.Environment, a agent.Agent, c Config,
	logger *slog.Logger, t ...tracker.Tracker) (*Episodic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newEpisodic: %w", err)
	}

	return &Episodic{
		Environment: e,
		Agent:       a,
		config:      c,
		stepLimit:   env.NewStepLimit(c.MaxSteps),
		trackers:    t,
		logger:      logging.OrDiscard(logger),
	}, nil
}

// Register registers a tracker.Tracker with the Experiment so that
// data generated during the experiment can be tracked and saved
func (e *Episodic) Register(t tracker.Tracker) {
	e.trackers = append(e.trackers, t)
}

// AddCheckpointer adds a checkpointer.Checkpointer which is given
// every TimeStep of the experiment
func (e *Episodic) AddCheckpointer(c checkpointer.Checkpointer) {
	e.checkpointers = append(e.checkpointers, c)
}

// ShowProgress displays p after every episode
func (e *Episodic) ShowProgress(p *progressbar.ManualProgressBar) {
	e.progress = p
}

// RunEpisode runs a single episode of the experiment and returns the
// number of steps taken
func (e *Episodic) RunEpisode() (int, error) {
	step, err := e.Environment.Reset()
	if err != nil {
		return 0, fmt.Errorf("runEpisode: could not reset environment: %w",
			err)
	}
	if step.Last() {
		e.logger.Warn("episode ended on reset", "episode", e.episode,
			"end", step.EndType())
		e.episode++
		return 0, e.track(step)
	}

	if err := e.Agent.ObserveFirst(step); err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}
	if err := e.track(step); err != nil {
		return 0, fmt.Errorf("runEpisode: %w", err)
	}

	for !step.Last() {
		action := e.Agent.SelectAction(step)

		var done bool
		step, done, err = e.Environment.Step(action)
		if err != nil {
			return step.Number, fmt.Errorf("runEpisode: could not step "+
				"environment: %w", err)
		}

		if !done && e.stepLimit.End(&step) && e.config.CapBonus != nil {
			step.Reward = *e.config.CapBonus
		}

		if err := e.track(step); err != nil {
			return step.Number, fmt.Errorf("runEpisode: %w", err)
		}

		if err := e.Agent.Observe(action, step); err != nil {
			return step.Number, fmt.Errorf("runEpisode: %w", err)
		}
		if err := e.Agent.Step(); err != nil {
			return step.Number, fmt.Errorf("runEpisode: %w", err)
		}
	}
	e.Agent.EndEpisode()

	e.logger.Info("episode finished", "episode", e.episode,
		"steps", step.Number, "end", step.EndType())
	e.episode++

	if e.progress != nil {
		e.progress.Increment()
		e.progress.Display()
	}

	return step.Number, nil
}

// Run runs all episodes of the experiment
func (e *Episodic) Run() error {
	for i := 0; i < e.config.Episodes; i++ {
		if _, err := e.RunEpisode(); err != nil {
			return fmt.Errorf("run: episode %d: %w", i, err)
		}
	}

	if e.progress != nil {
		e.progress.Close()
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (e *Episodic) Save() error {
	for _, t := range e.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// tracker and passing it to each checkpointer
func (e *Episodic) track(t ts.TimeStep) error {
	for _, tr := range e.trackers {
		tr.Track(t)
	}
	for _, c := range e.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return fmt.Errorf("track: %w", err)
		}
	}
	return nil
}
