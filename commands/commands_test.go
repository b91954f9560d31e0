package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const shortLearner = `
train: {episodes: 5, max_steps: 20, cap_bonus: 100}
test: {episodes: 2, max_steps: 20}
random: {episodes: 3, max_steps: 15}
`

// run executes the root command with args and returns its output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	conf := filepath.Join(dir, "learner.yaml")
	if err := os.WriteFile(conf, []byte(shortLearner), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, logs bytes.Buffer
	cmd := GetRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(append([]string{"--learner", conf, "--log-level", "error"},
		args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRandom(t *testing.T) {
	out, err := run(t, "random")
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if !strings.HasPrefix(out, "random:") || !strings.Contains(out, "3 episodes") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTrainThenPolicy(t *testing.T) {
	policies := t.TempDir()
	out, err := run(t, "train", "--policy-dir", policies)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	for _, phase := range []string{"train:", "test:", "policy saved to"} {
		if !strings.Contains(out, phase) {
			t.Errorf("output %q missing %q", out, phase)
		}
	}

	saved, err := filepath.Glob(filepath.Join(policies, "policy_*.csv"))
	if err != nil || len(saved) != 1 {
		t.Fatalf("saved policies = %v (%v), want 1", saved, err)
	}

	// Policies are found relative to the policy directory
	out, err = run(t, "policy", filepath.Base(saved[0]), "--policy-dir",
		policies)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if !strings.Contains(out, "2 episodes") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPolicyNotFound(t *testing.T) {
	_, err := run(t, "policy", "missing.csv", "--policy-dir", t.TempDir())
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("err = %v, want %v", err, ErrPolicyNotFound)
	}
}

func TestResolvePolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.csv")
	if err := os.WriteFile(path, []byte("0,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file string
		want string
	}{
		{path, path},
		{"p.csv", path},
	}
	for _, test := range tests {
		got, err := resolvePolicy(test.file, dir)
		if err != nil || got != test.want {
			t.Errorf("resolvePolicy(%v) = %v, %v, want %v", test.file, got,
				err, test.want)
		}
	}

	// Directories are not policies
	if _, err := resolvePolicy(dir, dir); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("err = %v, want %v", err, ErrPolicyNotFound)
	}
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvPolicyDir, "elsewhere")

	cmd := GetRootCommand()
	flags := cmd.PersistentFlags()
	if got, _ := flags.GetString("log-level"); got != "debug" {
		t.Errorf("log level = %v, want debug", got)
	}
	if got, _ := flags.GetString("policy-dir"); got != "elsewhere" {
		t.Errorf("policy dir = %v, want elsewhere", got)
	}
}

func TestSeedOverride(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "learner.yaml")
	data := shortLearner + "seed: 9\n"
	if err := os.WriteFile(conf, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{nil, "seed=9"},
		{[]string{"--seed", "0"}, "seed=0"},
		{[]string{"--seed", "4"}, "seed=4"},
	}
	for _, test := range tests {
		var out, logs bytes.Buffer
		cmd := GetRootCommand()
		cmd.SetOut(&out)
		cmd.SetErr(&logs)
		cmd.SetArgs(append([]string{"random", "--learner", conf,
			"--log-level", "debug"}, test.args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", test.args, err)
		}
		if !strings.Contains(logs.String(), test.want) {
			t.Errorf("%v: logs missing %q: %v", test.args, test.want,
				logs.String())
		}
	}

	opts := &options{learnerConfig: conf}
	if c, err := learnerConfig(opts); err != nil || c.Seed != 9 {
		t.Errorf("unset seed flag: seed = %v (%v), want 9", c.Seed, err)
	}
	opts.seedSet = true
	if c, err := learnerConfig(opts); err != nil || c.Seed != 0 {
		t.Errorf("seed flag 0: seed = %v (%v), want 0", c.Seed, err)
	}
}
