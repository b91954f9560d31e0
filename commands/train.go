package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/modym/experiment/trackers"
)

// TrainCommand trains a new policy, tests it and saves it in the policy
// directory
func TrainCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train, test and save a new policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
}

func runTrain(out, logOut io.Writer, opts *options) error {
	l, err := newLearner(opts, logOut)
	if err != nil {
		return err
	}

	s, err := l.Train()
	if err != nil {
		return err
	}
	printSummary(out, "train", s)

	s, err = l.Test()
	if err != nil {
		return err
	}
	printSummary(out, "test", s)

	path, err := l.SavePolicy()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "policy saved to %v\n", path)
	return nil
}

func printSummary(out io.Writer, phase string, s trackers.Summary) {
	fmt.Fprintf(out, "%-6v %v\n", phase+":", s)
}
