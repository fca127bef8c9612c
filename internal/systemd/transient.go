package systemd

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lxc/incus/v6/shared/subprocess"
)

// TransientUnitPrefix is the name prefix of the transient units used to run commands.
const TransientUnitPrefix = "ceph-cfg-"

// RunTransient runs the command inside a transient systemd service, waiting for it to
// complete and returning its standard output and error.
func RunTransient(ctx context.Context, name string, args ...string) (string, string, error) {
	unit := TransientUnitPrefix + uuid.NewString() + ".service"

	cmdArgs := []string{"--quiet", "--wait", "--pipe", "--collect", "--service-type=exec", "--unit=" + unit, "--", name}
	cmdArgs = append(cmdArgs, args...)

	stdout, stderr, err := subprocess.RunCommandSplit(ctx, nil, nil, "systemd-run", cmdArgs...)
	if err != nil && ctx.Err() != nil {
		// Killing systemd-run leaves the unit behind.
		stopErr := StopUnit(context.WithoutCancel(ctx), unit)
		if stopErr != nil {
			slog.Warn("Failed to stop transient unit", "unit", unit, "err", stopErr)
		}
	}

	return stdout, stderr, err
}
