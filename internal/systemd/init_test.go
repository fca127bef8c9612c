package systemd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

func TestDetectInitSystem(t *testing.T) {
	t.Parallel()

	initSystem, err := DetectInitSystem(context.Background())
	if err != nil {
		require.ErrorIs(t, err, ErrUnknownInitSystem)
		require.Empty(t, initSystem)

		return
	}

	require.Contains(t, []api.InitSystem{api.InitSystemd, api.InitUpstart, api.InitSysV}, initSystem)
}
