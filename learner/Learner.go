// Package learner trains, tests and replays tabular Q-learning policies
// on the cart-pole
package learner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/samuelfneumann/modym/agent"
	"github.com/samuelfneumann/modym/agent/random"
	"github.com/samuelfneumann/modym/agent/tabular/qlearning"
	"github.com/samuelfneumann/modym/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/modym/environment/envconfig"
	"github.com/samuelfneumann/modym/environment/wrappers"
	"github.com/samuelfneumann/modym/experiment"
	"github.com/samuelfneumann/modym/experiment/checkpointer"
	"github.com/samuelfneumann/modym/experiment/trackers"
	"github.com/samuelfneumann/modym/utils/logging"
	"github.com/samuelfneumann/modym/utils/progressbar"
)

// Learner balances the cart-pole with a tabular Q-learning agent acting
// on discretized observations. A Learner owns a single environment and
// agent, and its methods must not be called concurrently.
type Learner struct {
	config Config
	env    *wrappers.Discretize
	agent  *qlearning.QLearning
	logger *slog.Logger
	runID  uuid.UUID

	// progressOut is where progress bars are printed
	progressOut io.Writer
}

// New returns a new Learner for the cart-pole configured by envConf.
// The agent's action values start at zero.
func New(envConf envconfig.Config, c Config,
	logger *slog.Logger) (*Learner, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	runID := uuid.New()
	logger = logging.OrDiscard(logger).With("run", runID.String())

	raw, _, err := cartpole.New(envConf, c.Seed, logger)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %w", err)
	}

	env, err := wrappers.NewDiscretize(raw, cartpole.DiscretizationBounds(),
		c.Bins)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	a, err := agent.New(c.Agent, env, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create agent: %w", err)
	}
	q := a.(*qlearning.QLearning)

	return &Learner{
		config:      c,
		env:         env,
		agent:       q,
		logger:      logger,
		runID:       runID,
		progressOut: os.Stderr,
	}, nil
}

// RunID returns the unique identifier of the Learner's run
func (l *Learner) RunID() uuid.UUID {
	return l.runID
}

// Agent returns the Learner's Q-learning agent
func (l *Learner) Agent() *qlearning.QLearning {
	return l.agent
}

// Train trains the agent with an ε-greedy policy and returns a summary
// of the training episode lengths
func (l *Learner) Train() (trackers.Summary, error) {
	l.agent.Train()

	var checkpointers []checkpointer.Checkpointer
	if l.config.CheckpointEvery > 0 {
		if err := os.MkdirAll(l.config.PolicyDir, 0o755); err != nil {
			return trackers.Summary{}, fmt.Errorf("train: %w", err)
		}
		name := filepath.Join(l.config.PolicyDir,
			"checkpoint_"+l.runID.String()+"_")
		checkpointers = append(checkpointers, checkpointer.NewNEpisode(
			l.config.CheckpointEvery,
			policy{l.agent},
			checkpointer.FilenameEnumerator(0, name, ".csv"),
		))
	}

	s, err := l.run("train", l.agent, l.config.Train, checkpointers...)
	if err != nil {
		return s, fmt.Errorf("train: %w", err)
	}
	return s, nil
}

// Test runs the greedy policy of the agent without learning and returns
// a summary of the episode lengths
func (l *Learner) Test() (trackers.Summary, error) {
	l.agent.Eval()
	defer l.agent.Train()

	s, err := l.run("test", l.agent, l.config.Test)
	if err != nil {
		return s, fmt.Errorf("test: %w", err)
	}
	return s, nil
}

// FromPolicy replaces the agent's action values with the policy stored
// at path and tests it. If the policy cannot be loaded, the agent is
// left unchanged.
func (l *Learner) FromPolicy(path string) (trackers.Summary, error) {
	if err := l.agent.LoadTable(path); err != nil {
		return trackers.Summary{}, fmt.Errorf("fromPolicy: %w", err)
	}
	l.logger.Info("loaded policy", "path", path)

	s, err := l.Test()
	if err != nil {
		return s, fmt.Errorf("fromPolicy: %w", err)
	}
	return s, nil
}

// RandomTest runs an agent which selects actions uniformly at random and
// returns a summary of the episode lengths
func (l *Learner) RandomTest() (trackers.Summary, error) {
	r, err := agent.New(random.Config{}, l.env, l.config.Seed)
	if err != nil {
		return trackers.Summary{}, fmt.Errorf("randomTest: %w", err)
	}

	s, err := l.run("random", r, l.config.Random)
	if err != nil {
		return s, fmt.Errorf("randomTest: %w", err)
	}
	return s, nil
}

// SavePolicy saves the agent's action values in the policy directory,
// naming the file by the current time, and returns the file's path
func (l *Learner) SavePolicy() (string, error) {
	if err := os.MkdirAll(l.config.PolicyDir, 0o755); err != nil {
		return "", fmt.Errorf("savePolicy: %w", err)
	}

	path := checkpointer.FileTimer(l.config.PolicyDir, "policy", ".csv")()
	if err := l.agent.Table().Save(path); err != nil {
		return "", fmt.Errorf("savePolicy: %w", err)
	}

	l.logger.Info("saved policy", "path", path)
	return path, nil
}

// run runs a single experiment with agent a and summarizes the episode
// lengths
func (l *Learner) run(phase string, a agent.Agent, c experiment.Config,
	checkpointers ...checkpointer.Checkpointer) (trackers.Summary, error) {
	logger := l.logger.With("phase", phase)

	var lengthFile, returnFile string
	if l.config.OutputDir != "" {
		if err := os.MkdirAll(l.config.OutputDir, 0o755); err != nil {
			return trackers.Summary{}, err
		}
		prefix := filepath.Join(l.config.OutputDir,
			phase+"_"+l.runID.String())
		lengthFile, returnFile = prefix+"_lengths.bin", prefix+"_returns.bin"
	}
	lengths := trackers.NewEpisodeLength(lengthFile)
	returns := trackers.NewReturn(returnFile)

	exp, err := experiment.NewEpisodic(l.env, a, c, logger, lengths, returns)
	if err != nil {
		return trackers.Summary{}, err
	}
	for _, cp := range checkpointers {
		exp.AddCheckpointer(cp)
	}
	if l.config.Progress {
		exp.ShowProgress(progressbar.NewManualProgressBar(l.progressOut, 50,
			c.Episodes))
	}

	logger.Info("starting", "episodes", c.Episodes, "max_steps", c.MaxSteps)
	if err := exp.Run(); err != nil {
		return trackers.Summary{}, err
	}

	s := lengths.Summary()
	logger.Info("finished", "episodes", s.Episodes, "mean", s.Mean,
		"std", s.Std, "max", s.Max)

	if l.config.OutputDir != "" {
		if err := exp.Save(); err != nil {
			return s, err
		}
		plotFile := filepath.Join(l.config.OutputDir,
			phase+"_"+l.runID.String()+"_lengths.png")
		if err := lengths.Plot(plotFile, phase+" episode lengths"); err != nil {
			return s, err
		}
	}
	return s, nil
}

// policy saves the current action values of an agent, even if the
// agent's table is replaced after the policy is created
type policy struct {
	agent *qlearning.QLearning
}

func (p policy) Save(path string) error {
	return p.agent.Table().Save(path)
}
