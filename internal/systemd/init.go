package systemd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/util"
	"github.com/lxc/incus/v6/shared/subprocess"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

// ErrUnknownInitSystem is returned when the host's init system couldn't be identified.
var ErrUnknownInitSystem = errors.New("unable to identify the init system")

const (
	upstartInitPath = "/sbin/init"
	sysVCronScript  = "/etc/init.d/cron"
)

// DetectInitSystem returns the init system the host is running.
func DetectInitSystem(ctx context.Context) (api.InitSystem, error) {
	if util.IsRunningSystemd() {
		return api.InitSystemd, nil
	}

	// Upstart reports itself in its version string.
	out, err := subprocess.RunCommandContext(ctx, upstartInitPath, "--version")
	if err == nil && strings.Contains(out, "upstart") {
		return api.InitUpstart, nil
	}

	// SysV systems ship plain init scripts rather than compatibility symlinks.
	fi, err := os.Lstat(sysVCronScript)
	if err == nil && fi.Mode().IsRegular() {
		return api.InitSysV, nil
	}

	return "", ErrUnknownInitSystem
}
