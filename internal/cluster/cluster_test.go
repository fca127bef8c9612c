package cluster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cephconf"
	"github.com/lxc/incus-os/ceph-cfg/internal/executor"
)

const testConfig = `[global]
fsid = 1234-uuid
mon_initial_members = node1, node2
mon_host = 10.0.0.1, 10.0.0.2

[mon.node3]
mon addr = 10.0.0.3
`

const testShowConfig = `name = mon.node1
cluster = ceph
mon_data = /srv/ceph/mon/ceph-node1
admin_socket = /run/ceph/ceph-mon.node1.asok
keyring_osd = /tmp/ignored
`

func newTestModel(t *testing.T, config string) *Model {
	t.Helper()

	root := t.TempDir()
	opts := api.Options{
		ConfDir: filepath.Join(root, "etc"),
		DataDir: filepath.Join(root, "lib"),
		RunDir:  filepath.Join(root, "run"),
	}

	if config != "" {
		err := os.MkdirAll(opts.ConfDir, 0o755)
		require.NoError(t, err)

		err = os.WriteFile(cephconf.Path(opts.ConfDir, "ceph"), []byte(config), 0o644)
		require.NoError(t, err)
	}

	return NewModel(opts)
}

func hostname(name string) func() (string, error) {
	return func() (string, error) { return name, nil }
}

func TestNewModel(t *testing.T) {
	t.Parallel()

	m := NewModel(api.Options{})
	require.Equal(t, "ceph", m.ClusterName)
	require.Equal(t, api.DefaultConfDir, m.ConfDir)
	require.Nil(t, m.Defaults)
	require.Nil(t, m.MonMembers)

	// Cluster name resolved from the UUID.
	dir := t.TempDir()
	_, err := cephconf.Write(dir, "backup", api.ServiceCephCluster{FSID: "abcd"})
	require.NoError(t, err)

	m = NewModel(api.Options{ConfDir: dir, ClusterUUID: "abcd"})
	require.Equal(t, "backup", m.ClusterName)

	// Unknown UUID falls back to the default name.
	m = NewModel(api.Options{ConfDir: dir, ClusterUUID: "ffff"})
	require.Equal(t, "ceph", m.ClusterName)
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, testConfig)
	fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{Stdout: testShowConfig})

	u := NewUpdater(m, fake, hostname("node1.example.org"))

	err := u.Prepare(context.Background())
	require.NoError(t, err)

	require.Equal(t, "node1", m.Hostname)
	require.Equal(t, "1234-uuid", m.ClusterUUID)
	require.Equal(t, "/srv/ceph/mon/ceph-node1", m.Default("mon_data"))
	require.Equal(t, "/run/ceph/ceph-mon.node1.asok", m.Default("mon_admin_socket"))
	require.Equal(t, filepath.Join(m.DataDir, "bootstrap-osd", "ceph.keyring"), m.Default("keyring_osd"))
	require.Equal(t, filepath.Join(m.ConfDir, "ceph.client.admin.keyring"), m.Default("keyring_admin"))
	require.Equal(t, []MonMember{
		{Name: "node1", Addr: "10.0.0.1"},
		{Name: "node2", Addr: "10.0.0.2"},
		{Name: "node3", Addr: "10.0.0.3"},
	}, m.MonMembers)

	require.True(t, NewQuery(m).IsMonitor())
}

func TestPrepareMonitorSections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		config   string
		expected []MonMember
	}{
		{
			name: "Initial member with section",
			config: `[global]
fsid = 1234-uuid
mon_initial_members = a
mon_host = 10.0.0.1:6789

[mon.a]
host = node1
`,
			expected: []MonMember{{Name: "a", Host: "node1", Addr: "10.0.0.1:6789"}},
		},
		{
			name: "Section only",
			config: `[global]
fsid = 1234-uuid

[mon.a]
host = node1
mon addr = 10.0.0.1:6789
`,
			expected: []MonMember{{Name: "a", Host: "node1", Addr: "10.0.0.1:6789"}},
		},
		{
			name: "Section without address",
			config: `[global]
fsid = 1234-uuid

[mon.a]
host = node1
`,
			expected: []MonMember{{Name: "a", Host: "node1"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := newTestModel(t, tc.config)
			fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{})

			err := NewUpdater(m, fake, hostname("node1")).Prepare(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.expected, m.MonMembers)
			require.True(t, NewQuery(m).IsMonitor())

			// The built-in monitor paths follow the monitor ID.
			require.Equal(t, "a", m.Default("mon_id"))
			require.Equal(t, filepath.Join(m.DataDir, "mon", "ceph-a"), m.Default("mon_data"))
			require.Equal(t, filepath.Join(m.RunDir, "ceph-mon.a.asok"), m.Default("mon_admin_socket"))
		})
	}
}

func TestPrepareMissingConfig(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, "")
	fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{Stdout: testShowConfig})

	err := NewUpdater(m, fake, hostname("node1")).Prepare(context.Background())
	require.ErrorIs(t, err, ErrConfig)
	require.ErrorIs(t, err, cephconf.ErrConfigMissing)
	require.Nil(t, m.MonMembers)
}

func TestPrepareUUIDMismatch(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, testConfig)
	m.ClusterUUID = "other-uuid"
	fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{})

	err := NewUpdater(m, fake, hostname("node1")).Prepare(context.Background())
	require.ErrorIs(t, err, ErrConfig)
}

func TestPrepareBestEffort(t *testing.T) {
	t.Parallel()

	// A failing ceph-conf is tolerated and the built-in defaults are kept.
	m := newTestModel(t, "")
	fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{Err: errors.New("no config")})

	err := NewUpdater(m, fake, hostname("node1")).PrepareBestEffort(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(m.DataDir, "bootstrap-osd", "ceph.keyring"), m.Default("keyring_osd"))

	// Anything else still fails.
	m = newTestModel(t, "")
	failing := func() (string, error) { return "", errors.New("uname failed") }

	err = NewUpdater(m, fake, failing).PrepareBestEffort(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConfig)
}

func TestRefreshOrdering(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, testConfig)
	u := NewUpdater(m, executor.NewFake(), hostname("node1"))

	err := u.RefreshDefaults(context.Background())
	require.ErrorIs(t, err, ErrNotRefreshed)

	err = u.RefreshMonMembers(context.Background())
	require.ErrorIs(t, err, ErrNotRefreshed)
}

func TestIsMonitor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		hostname string
		members  []MonMember
		expected bool
	}{
		{
			name:     "Unknown membership",
			hostname: "node1",
			members:  nil,
			expected: false,
		},
		{
			name:     "Member",
			hostname: "node1",
			members:  []MonMember{{Name: "node1"}},
			expected: true,
		},
		{
			name:     "Member with domain",
			hostname: "node1",
			members:  []MonMember{{Name: "node1.example.org"}},
			expected: true,
		},
		{
			name:     "Not a member",
			hostname: "node9",
			members:  []MonMember{{Name: "node1"}, {Name: "node2"}},
			expected: false,
		},
		{
			name:     "Member by section host",
			hostname: "node1",
			members:  []MonMember{{Name: "a", Host: "node1", Addr: "10.0.0.1:6789"}},
			expected: true,
		},
		{
			name:     "Member by qualified section host",
			hostname: "node1",
			members:  []MonMember{{Name: "a", Host: "node1.example.org"}},
			expected: true,
		},
		{
			name:     "Other section host",
			hostname: "node1",
			members:  []MonMember{{Name: "a", Host: "node2"}},
			expected: false,
		},
		{
			name:     "Anonymous members",
			hostname: "node1",
			members:  []MonMember{{Addr: "10.0.0.1"}},
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := &Model{Hostname: tc.hostname, MonMembers: tc.members}
			require.Equal(t, tc.expected, NewQuery(m).IsMonitor())
		})
	}
}

func TestRefreshMonStatus(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, testConfig)
	fake := executor.NewFake().
		On("ceph-conf", executor.FakeResponse{Stdout: testShowConfig}).
		On("ceph --cluster ceph --admin-daemon", executor.FakeResponse{Stdout: `{"name":"node1","rank":0,"state":"leader","quorum":[0,1],"monmap":{"fsid":"1234-uuid","epoch":2,"mons":[{"rank":0,"name":"node1","addr":"10.0.0.1:6789/0"}]}}`})

	u := NewUpdater(m, fake, hostname("node1"))

	err := u.Prepare(context.Background())
	require.NoError(t, err)

	err = u.RefreshMonStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m.MonStatus)
	require.Equal(t, "leader", m.MonStatus.State)
	require.Len(t, m.MonStatus.MonMap.Mons, 1)
	require.True(t, fake.Called("ceph --cluster ceph --admin-daemon /run/ceph/ceph-mon.node1.asok mon_status"))
}

func TestRefreshMonStatusErrors(t *testing.T) {
	t.Parallel()

	// Not a monitor.
	m := newTestModel(t, testConfig)
	fake := executor.NewFake().On("ceph-conf", executor.FakeResponse{})
	u := NewUpdater(m, fake, hostname("node9"))

	err := u.Prepare(context.Background())
	require.NoError(t, err)

	err = u.RefreshMonStatus(context.Background())
	require.ErrorIs(t, err, ErrNotMonitor)

	// Wrong cluster behind the socket.
	m = newTestModel(t, testConfig)
	fake = executor.NewFake().
		On("ceph-conf", executor.FakeResponse{}).
		On("ceph", executor.FakeResponse{Stdout: `{"name":"node1","state":"peon","monmap":{"fsid":"other"}}`})
	u = NewUpdater(m, fake, hostname("node1"))

	err = u.Prepare(context.Background())
	require.NoError(t, err)

	err = u.RefreshMonStatus(context.Background())
	require.ErrorIs(t, err, ErrConfig)
	require.Nil(t, m.MonStatus)
}
