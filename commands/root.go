// Package commands implements the command line interface for training,
// testing and replaying cart-pole policies
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/modym/environment/envconfig"
	"github.com/samuelfneumann/modym/learner"
	"github.com/samuelfneumann/modym/utils/logging"
)

// Environment variables which provide flag defaults
const (
	EnvLogLevel  = "MODYM_LOG_LEVEL"
	EnvConfig    = "MODYM_CONFIG"
	EnvPolicyDir = "MODYM_POLICY_DIR"
)

// options are the flags shared by all commands
type options struct {
	envConfig     string
	learnerConfig string
	logLevel      string
	seed          uint64
	seedSet       bool
	policyDir     string
	outputDir     string
	progress      bool
}

// GetRootCommand returns the root command. Run without a subcommand, it
// trains and tests a new policy.
func GetRootCommand() *cobra.Command {
	opts := &options{}

	rootCommand := &cobra.Command{
		Use:   "modym",
		Short: "Balance a cart-pole with tabular Q-learning",
		Long: `Train, test and replay tabular Q-learning policies that balance a
simulated cart-pole.

Examples:
  modym                        # train and test a new policy
  modym policy policy_x.csv    # test a saved policy
  modym random                 # run a uniformly random agent`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.seedSet = cmd.Flags().Changed("seed")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&opts.envConfig, "config", "c", os.Getenv(EnvConfig),
		"Environment config file (YAML or JSON), defaults to the built-in cart-pole")
	flags.StringVar(&opts.learnerConfig, "learner", "",
		"Learner config file (YAML), defaults to the built-in hyper-parameters")
	flags.StringVar(&opts.logLevel, "log-level", envOr(EnvLogLevel, "info"),
		"Log level: debug, info, warn or error")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed for all random number generators")
	flags.StringVar(&opts.policyDir, "policy-dir", os.Getenv(EnvPolicyDir),
		"Directory policies are saved in and loaded from")
	flags.StringVarP(&opts.outputDir, "output", "o", "",
		"Directory to save episode data and plots in")
	flags.BoolVar(&opts.progress, "progress", false, "Show a progress bar")

	rootCommand.AddCommand(TrainCommand(opts))
	rootCommand.AddCommand(PolicyCommand(opts))
	rootCommand.AddCommand(RandomCommand(opts))
	return rootCommand
}

// newLearner constructs the logger and Learner described by opts.
// Logs are written to logOut.
func newLearner(opts *options, logOut io.Writer) (*learner.Learner, error) {
	logger := logging.NewLogger(opts.logLevel, logOut)

	envConf := envconfig.Default()
	if opts.envConfig != "" {
		var err error
		envConf, err = envconfig.Load(opts.envConfig)
		if err != nil {
			return nil, err
		}
	}

	c, err := learnerConfig(opts)
	if err != nil {
		return nil, err
	}

	l, err := learner.New(envConf, c, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("created learner", "run", l.RunID(), "model",
		envConf.ModelName(), "seed", c.Seed)
	return l, nil
}

// learnerConfig returns the learner configuration with flag overrides
// applied
func learnerConfig(opts *options) (learner.Config, error) {
	c := learner.DefaultConfig()
	if opts.learnerConfig != "" {
		var err error
		c, err = learner.LoadConfig(opts.learnerConfig)
		if err != nil {
			return learner.Config{}, err
		}
	}

	if opts.seedSet {
		c.Seed = opts.seed
	}
	if opts.policyDir != "" {
		c.PolicyDir = opts.policyDir
	}
	if opts.outputDir != "" {
		c.OutputDir = opts.outputDir
	}
	c.Progress = c.Progress || opts.progress

	if err := c.Validate(); err != nil {
		return learner.Config{}, fmt.Errorf("learnerConfig: %w", err)
	}
	return c, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
