package systemd

import (
	"context"

	"github.com/lxc/incus/v6/shared/subprocess"
)

// StopUnit stops the given units.
func StopUnit(ctx context.Context, units ...string) error {
	args := []string{"stop"}
	args = append(args, units...)

	_, err := subprocess.RunCommandContext(ctx, "systemctl", args...)
	if err != nil {
		return err
	}

	return nil
}
