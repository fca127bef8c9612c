package executor

import (
	"context"

	"github.com/lxc/incus/v6/shared/subprocess"
)

// Direct runs commands as plain child processes.
type Direct struct{}

// Run executes the command and returns its output.
func (*Direct) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	logCommand("direct", name, args)

	stdout, stderr, err := subprocess.RunCommandSplit(ctx, nil, nil, name, args...)
	if err != nil {
		return nil, err
	}

	return &Result{Stdout: stdout, Stderr: stderr}, nil
}
