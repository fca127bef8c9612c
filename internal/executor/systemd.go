package executor

import (
	"context"

	"github.com/lxc/incus-os/ceph-cfg/internal/systemd"
)

// Systemd runs commands as transient systemd units so they get tracked by the host's service manager.
type Systemd struct{}

// Run executes the command in a transient unit and returns its output.
func (*Systemd) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	logCommand("systemd", name, args)

	stdout, stderr, err := systemd.RunTransient(ctx, name, args...)
	if err != nil {
		return nil, err
	}

	return &Result{Stdout: stdout, Stderr: stderr}, nil
}
