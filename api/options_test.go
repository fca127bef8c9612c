package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

func TestOptionsWithDefaults(t *testing.T) {
	t.Parallel()

	opts := api.Options{KeyringType: api.KeyringTypeOSD}.WithDefaults()
	require.Equal(t, api.DefaultConfDir, opts.ConfDir)
	require.Equal(t, api.DefaultDataDir, opts.DataDir)
	require.Equal(t, api.DefaultRunDir, opts.RunDir)
	require.Equal(t, api.ExecutorDirect, opts.Executor)
	require.Equal(t, api.DefaultConnectTimeout, opts.ConnectTimeout)
	require.Empty(t, opts.ClusterName, "Cluster name is resolved later")

	// Explicit values are kept.
	opts = api.Options{ConfDir: "/srv/ceph", Executor: api.ExecutorSystemd, ConnectTimeout: 30}.WithDefaults()
	require.Equal(t, "/srv/ceph", opts.ConfDir)
	require.Equal(t, api.ExecutorSystemd, opts.Executor)
	require.Equal(t, 30, opts.ConnectTimeout)
}

func TestMonStatusInQuorum(t *testing.T) {
	t.Parallel()

	for state, expected := range map[string]bool{
		"leader":        true,
		"peon":          true,
		"probing":       false,
		"electing":      false,
		"synchronizing": false,
	} {
		s := api.MonStatus{State: state}
		require.Equal(t, expected, s.InQuorum(), state)
	}
}
