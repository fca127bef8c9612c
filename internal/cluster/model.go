// Package cluster tracks the local view of a Ceph cluster's identity, configuration and
// monitor membership for the duration of a single keyring operation.
package cluster

import (
	"errors"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cephconf"
)

// ErrConfig is returned when the local cluster configuration is missing or unusable.
var ErrConfig = errors.New("cluster configuration error")

// ErrNotRefreshed is returned when the model is used before the refresh step it depends on ran.
// It indicates a broken call sequence rather than a problem with the host.
var ErrNotRefreshed = errors.New("cluster model not refreshed")

// MonMember is a single monitor known from the cluster configuration.
// Name is the monitor ID, Host the hostname from its own section if any.
type MonMember struct {
	Name string
	Host string
	Addr string
}

// Model holds the cluster state gathered for one operation.
type Model struct {
	ClusterName string
	ClusterUUID string
	Hostname    string

	// Defaults holds paths and daemon names. It's nil until defaults got refreshed.
	Defaults map[string]string

	// MonMembers is nil until monitor membership got refreshed.
	MonMembers []MonMember
	MonStatus  *api.MonStatus

	ConfDir string
	DataDir string
	RunDir  string

	// Config is the parsed cluster configuration, set once it got loaded.
	Config *cephconf.Config
}

// NewModel returns a model for the cluster described by the options.
// When only the cluster UUID is known, the name is looked up from the local configuration files.
func NewModel(opts api.Options) *Model {
	opts = opts.WithDefaults()

	m := &Model{
		ClusterName: opts.ClusterName,
		ClusterUUID: opts.ClusterUUID,
		ConfDir:     opts.ConfDir,
		DataDir:     opts.DataDir,
		RunDir:      opts.RunDir,
	}

	if m.ClusterName == "" && m.ClusterUUID != "" {
		name, err := cephconf.NameFromUUID(m.ConfDir, m.ClusterUUID)
		if err == nil {
			m.ClusterName = name
		}
	}

	if m.ClusterName == "" {
		m.ClusterName = api.DefaultClusterName
	}

	return m
}

// Default returns a configuration default, or an empty string if unset.
func (m *Model) Default(key string) string {
	return m.Defaults[key]
}
