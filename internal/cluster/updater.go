package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cephconf"
	"github.com/lxc/incus-os/ceph-cfg/internal/executor"
)

// ErrNotMonitor is returned when a monitor-only refresh runs on a host that isn't a monitor.
var ErrNotMonitor = errors.New("local host is not a monitor")

// Updater refreshes a model from local host facts and configuration files.
// It never contacts the cluster over the network.
type Updater struct {
	model    *Model
	exec     executor.Executor
	hostname func() (string, error)
}

// NewUpdater returns an Updater for the model. A nil hostname function defaults to the kernel's node name.
func NewUpdater(m *Model, exec executor.Executor, hostname func() (string, error)) *Updater {
	if hostname == nil {
		hostname = NodeName
	}

	return &Updater{
		model:    m,
		exec:     exec,
		hostname: hostname,
	}
}

// NodeName returns the kernel's node name.
func NodeName() (string, error) {
	var uts unix.Utsname

	err := unix.Uname(&uts)
	if err != nil {
		return "", err
	}

	return unix.ByteSliceToString(uts.Nodename[:]), nil
}

// Prepare runs the full refresh sequence required before any mutation.
func (u *Updater) Prepare(ctx context.Context) error {
	err := u.RefreshHostname(ctx)
	if err != nil {
		return err
	}

	err = u.RefreshDefaults(ctx)
	if err != nil {
		return err
	}

	err = u.LoadConfig(ctx, u.model.ClusterName)
	if err != nil {
		return err
	}

	return u.RefreshMonMembers(ctx)
}

// PrepareBestEffort runs the reduced refresh sequence used for read-only checks.
// Configuration errors are ignored, anything else is still returned.
func (u *Updater) PrepareBestEffort(ctx context.Context) error {
	err := u.RefreshHostname(ctx)
	if err != nil {
		return err
	}

	err = u.RefreshDefaults(ctx)
	if err != nil {
		if !errors.Is(err, ErrConfig) {
			return err
		}

		slog.Debug("Continuing with incomplete cluster configuration", "cluster", u.model.ClusterName, "err", err)
	}

	return nil
}

// RefreshHostname sets the model's hostname to the local short hostname.
func (u *Updater) RefreshHostname(_ context.Context) error {
	name, err := u.hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	short, _, _ := strings.Cut(strings.TrimSpace(name), ".")
	if short == "" {
		return errors.New("local hostname is empty")
	}

	u.model.Hostname = short

	return nil
}

// RefreshDefaults populates the built-in path defaults, then overlays the values reported by ceph-conf.
// The built-in defaults remain set even if ceph-conf fails.
func (u *Updater) RefreshDefaults(ctx context.Context) error {
	m := u.model

	if m.Hostname == "" {
		return fmt.Errorf("%w: defaults need the hostname", ErrNotRefreshed)
	}

	defaults := map[string]string{
		"conf_dir":      m.ConfDir,
		"data_dir":      m.DataDir,
		"run_dir":       m.RunDir,
		"keyring_admin": filepath.Join(m.ConfDir, m.ClusterName+".client.admin.keyring"),
		"keyring_mon":   filepath.Join(m.DataDir, "tmp", m.ClusterName+".mon.keyring"),
	}

	maps.Copy(defaults, monDefaults(m, m.Hostname))

	for _, daemon := range []api.KeyringType{api.KeyringTypeOSD, api.KeyringTypeMDS, api.KeyringTypeRGW, api.KeyringTypeMGR} {
		defaults["keyring_"+string(daemon)] = filepath.Join(m.DataDir, "bootstrap-"+string(daemon), m.ClusterName+".keyring")
	}

	m.Defaults = defaults

	res, err := u.exec.Run(ctx, "ceph-conf",
		"--cluster", m.ClusterName,
		"--conf", cephconf.Path(m.ConfDir, m.ClusterName),
		"--name", "mon."+m.Hostname,
		"--show-config")
	if err != nil {
		return fmt.Errorf("%w: failed to read configuration defaults: %w", ErrConfig, err)
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" || strings.HasPrefix(key, "keyring_") {
			continue
		}

		defaults[key] = strings.TrimSpace(value)
	}

	// With a monitor name, ceph-conf expands the admin socket for the local monitor.
	if defaults["admin_socket"] != "" {
		defaults["mon_admin_socket"] = defaults["admin_socket"]
	}

	return nil
}

// LoadConfig parses the named cluster's configuration file and sets the cluster UUID from it.
func (u *Updater) LoadConfig(_ context.Context, clusterName string) error {
	m := u.model

	path := cephconf.Path(m.ConfDir, clusterName)

	c, err := cephconf.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %w: %q", ErrConfig, err, path)
	}

	if m.ClusterUUID != "" && m.ClusterUUID != c.FSID {
		return fmt.Errorf("%w: cluster uuid %q doesn't match fsid %q in %q", ErrConfig, m.ClusterUUID, c.FSID, path)
	}

	m.ClusterName = clusterName
	m.ClusterUUID = c.FSID
	m.Config = c

	return nil
}

// RefreshMonMembers populates the monitor membership from the loaded configuration.
func (u *Updater) RefreshMonMembers(_ context.Context) error {
	m := u.model

	if m.Config == nil || m.ClusterUUID == "" {
		return fmt.Errorf("%w: monitor membership needs the cluster config", ErrNotRefreshed)
	}

	members := []MonMember{}

	for i, name := range m.Config.MonInitialMembers {
		member := MonMember{Name: name}
		if i < len(m.Config.MonHosts) {
			member.Addr = m.Config.MonHosts[i]
		}

		section, ok := m.Config.Monitors[name]
		if ok {
			member.Host = section.Host

			if member.Addr == "" {
				member.Addr = section.Addr
			}
		}

		members = append(members, member)
	}

	// Add monitors only declared through their own section.
	ids := slices.Sorted(maps.Keys(m.Config.Monitors))

	for _, id := range ids {
		known := slices.ContainsFunc(members, func(member MonMember) bool { return member.Name == id })
		if !known {
			section := m.Config.Monitors[id]
			members = append(members, MonMember{Name: id, Host: section.Host, Addr: section.Addr})
		}
	}

	// Fall back to anonymous entries when only addresses are known.
	if len(members) == 0 {
		for _, addr := range m.Config.MonHosts {
			members = append(members, MonMember{Addr: addr})
		}
	}

	m.MonMembers = members

	// A local monitor whose ID isn't the hostname uses its ID in the built-in paths.
	local, ok := NewQuery(m).LocalMonitor()
	if ok && local.Name != "" && shortName(local.Name) != m.Hostname && m.Defaults != nil {
		byHost := monDefaults(m, m.Hostname)

		for key, value := range monDefaults(m, local.Name) {
			if m.Defaults[key] == byHost[key] {
				m.Defaults[key] = value
			}
		}
	}

	return nil
}

// monDefaults returns the built-in defaults of the monitor with the given ID.
func monDefaults(m *Model, id string) map[string]string {
	return map[string]string{
		"mon_id":           id,
		"mon_data":         filepath.Join(m.DataDir, "mon", m.ClusterName+"-"+id),
		"mon_admin_socket": filepath.Join(m.RunDir, m.ClusterName+"-mon."+id+".asok"),
	}
}

// RefreshMonStatus fetches the local monitor's status through its admin socket.
func (u *Updater) RefreshMonStatus(ctx context.Context) error {
	m := u.model

	if !NewQuery(m).IsMonitor() {
		return fmt.Errorf("%w: %q", ErrNotMonitor, m.Hostname)
	}

	res, err := u.exec.Run(ctx, "ceph",
		"--cluster", m.ClusterName,
		"--admin-daemon", m.Default("mon_admin_socket"),
		"mon_status")
	if err != nil {
		return fmt.Errorf("failed to get monitor status: %w", err)
	}

	status := api.MonStatus{}

	err = json.Unmarshal([]byte(res.Stdout), &status)
	if err != nil {
		return fmt.Errorf("failed to parse monitor status: %w", err)
	}

	if status.MonMap.FSID != "" && status.MonMap.FSID != m.ClusterUUID {
		return fmt.Errorf("%w: monitor reports fsid %q, expected %q", ErrConfig, status.MonMap.FSID, m.ClusterUUID)
	}

	if !status.InQuorum() {
		slog.Warn("Local monitor isn't in quorum", "mon", status.Name, "state", status.State)
	}

	m.MonStatus = &status

	return nil
}
