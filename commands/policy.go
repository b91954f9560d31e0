package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ErrPolicyNotFound is returned when a policy file exists neither at
// the given path nor in the policy directory
var ErrPolicyNotFound = errors.New("not a valid policy file")

// PolicyCommand tests a saved policy without learning
func PolicyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "policy <file>",
		Short: "Test a saved policy",
		Long: `Test a saved policy with greedy actions and no learning.

The file is looked up as given and then relative to the policy
directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicy(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts,
				args[0])
		},
	}
}

func runPolicy(out, logOut io.Writer, opts *options, file string) error {
	c, err := learnerConfig(opts)
	if err != nil {
		return err
	}
	path, err := resolvePolicy(file, c.PolicyDir)
	if err != nil {
		return err
	}

	l, err := newLearner(opts, logOut)
	if err != nil {
		return err
	}

	s, err := l.FromPolicy(path)
	if err != nil {
		return err
	}
	printSummary(out, "test", s)
	return nil
}

// resolvePolicy returns the path of the regular file named file, either
// as given or inside dir
func resolvePolicy(file, dir string) (string, error) {
	candidates := []string{file}
	if !filepath.IsAbs(file) {
		candidates = append(candidates, filepath.Join(dir, file))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("resolvePolicy: %w", err)
		}
		if info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("resolvePolicy: %w: %v", ErrPolicyNotFound, file)
}
