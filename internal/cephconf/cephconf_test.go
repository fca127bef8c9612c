package cephconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := Path(dir, "ceph")

	writeFile(t, path, `[global]
	fsid = 1234-uuid
	mon initial members = node1, node2
	mon-host = [v2:10.0.0.1:3300,v1:10.0.0.1:6789],10.0.0.2
	auth cluster required = cephx

[mon.node3]
	host = node3.example.org

[mon.node4]
	mon addr = 10.0.0.4:6789
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, c.Path)
	require.Equal(t, "1234-uuid", c.FSID)
	require.Equal(t, []string{"node1", "node2"}, c.MonInitialMembers)
	require.Equal(t, []string{"[v2:10.0.0.1:3300,v1:10.0.0.1:6789]", "10.0.0.2"}, c.MonHosts)
	require.Equal(t, map[string]MonSection{
		"node3": {Host: "node3.example.org"},
		"node4": {Addr: "10.0.0.4:6789"},
	}, c.Monitors)
	require.Equal(t, "cephx", c.Get("global", "auth_cluster_required"))
	require.Empty(t, c.Get("client", "anything"))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(Path(dir, "missing"))
	require.ErrorIs(t, err, ErrConfigMissing)

	path := Path(dir, "nofsid")
	writeFile(t, path, "[global]\nmon_host = 10.0.0.1\n")

	_, err = Load(path)
	require.ErrorIs(t, err, ErrMissingFSID)
}

func TestNameFromUUID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, Path(dir, "ceph"), "[global]\nfsid = aaaa\n")
	writeFile(t, Path(dir, "backup"), "[global]\nfsid = bbbb\n")
	writeFile(t, Path(dir, "broken"), "[global]\nmon_host = 10.0.0.1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "fsid = bbbb\n")

	name, err := NameFromUUID(dir, "bbbb")
	require.NoError(t, err)
	require.Equal(t, "backup", name)

	_, err = NameFromUUID(dir, "cccc")
	require.ErrorIs(t, err, ErrClusterNotFound)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "etc", "ceph")

	fsid, err := Write(dir, "ceph", api.ServiceCephCluster{
		FSID:           "1234-uuid",
		MonInitMembers: []string{"node1", "node2"},
		Monitors:       []string{"10.0.0.1", "10.0.0.2"},
		ClientConfig:   map[string]string{"rbd_cache": "true", "admin_socket": "/var/run/ceph/$name.asok"},
	})
	require.NoError(t, err)
	require.Equal(t, "1234-uuid", fsid)

	content, err := os.ReadFile(Path(dir, "ceph"))
	require.NoError(t, err)
	require.Equal(t, `[global]
fsid = 1234-uuid
mon_initial_members = node1,node2
mon_host = 10.0.0.1,10.0.0.2

[client]
admin_socket = /var/run/ceph/$name.asok
rbd_cache = true
`, string(content))

	c, err := Load(Path(dir, "ceph"))
	require.NoError(t, err)
	require.Equal(t, []string{"node1", "node2"}, c.MonInitialMembers)
}

func TestWriteGeneratesFSID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	fsid, err := Write(dir, "ceph", api.ServiceCephCluster{})
	require.NoError(t, err)
	require.Len(t, fsid, 36)

	c, err := Load(Path(dir, "ceph"))
	require.NoError(t, err)
	require.Equal(t, fsid, c.FSID)
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "Empty",
			value:    "",
			expected: []string{},
		},
		{
			name:     "Comma separated",
			value:    "a,b,c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "Mixed separators",
			value:    "a, b  c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "Address vectors",
			value:    "[v2:1.2.3.4:3300,v1:1.2.3.4:6789] [v2:1.2.3.5:3300,v1:1.2.3.5:6789]",
			expected: []string{"[v2:1.2.3.4:3300,v1:1.2.3.4:6789]", "[v2:1.2.3.5:3300,v1:1.2.3.5:6789]"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, splitList(tc.value))
		})
	}
}
