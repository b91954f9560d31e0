package commands

import (
	"io"

	"github.com/spf13/cobra"
)

// RandomCommand runs an agent which acts uniformly at random, as a
// smoke test of the environment
func RandomCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Run a uniformly random agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRandom(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
}

func runRandom(out, logOut io.Writer, opts *options) error {
	l, err := newLearner(opts, logOut)
	if err != nil {
		return err
	}

	s, err := l.RandomTest()
	if err != nil {
		return err
	}
	printSummary(out, "random", s)
	return nil
}
