package cephconf

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/moby/sys/atomicwriter"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

// Write generates the configuration file for the named cluster and returns its fsid.
// A new fsid is generated when the cluster doesn't specify one.
func Write(confDir string, clusterName string, cluster api.ServiceCephCluster) (string, error) {
	// Create the Ceph config directory if missing.
	err := os.MkdirAll(confDir, 0o755)
	if err != nil {
		return "", err
	}

	fsid := cluster.FSID
	if fsid == "" {
		fsid = uuid.NewString()
	}

	buf := bytes.Buffer{}

	_, _ = fmt.Fprintf(&buf, "[global]\nfsid = %s\n", fsid)

	if len(cluster.MonInitMembers) > 0 {
		_, _ = fmt.Fprintf(&buf, "mon_initial_members = %s\n", strings.Join(cluster.MonInitMembers, ","))
	}

	if len(cluster.Monitors) > 0 {
		_, _ = fmt.Fprintf(&buf, "mon_host = %s\n", strings.Join(cluster.Monitors, ","))
	}

	if len(cluster.ClientConfig) > 0 {
		_, _ = fmt.Fprint(&buf, "\n[client]\n")

		keys := make([]string, 0, len(cluster.ClientConfig))
		for k := range cluster.ClientConfig {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			_, _ = fmt.Fprintf(&buf, "%s = %s\n", k, cluster.ClientConfig[k])
		}
	}

	err = atomicwriter.WriteFile(Path(confDir, clusterName), buf.Bytes(), 0o644)
	if err != nil {
		return "", err
	}

	return fsid, nil
}
