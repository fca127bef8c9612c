// Package remote registers and removes keyrings in the cluster-wide authentication registry.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cluster"
	"github.com/lxc/incus-os/ceph-cfg/internal/executor"
	"github.com/lxc/incus-os/ceph-cfg/internal/keyring"
)

// ErrRemoteOperation is returned when a registry change fails on the cluster side.
var ErrRemoteOperation = errors.New("remote cluster operation failed")

// ErrNotConnected is returned when a registry change is attempted without a working connection.
var ErrNotConnected = errors.New("not connected to the cluster")

// Connector is a session against the cluster's authentication registry.
type Connector interface {
	Connect(ctx context.Context) bool
	AuthAdd(ctx context.Context, keyringType api.KeyringType) error
	AuthDel(ctx context.Context, keyringType api.KeyringType) error
}

// Updater talks to the cluster through the ceph command line tool.
type Updater struct {
	model   *cluster.Model
	exec    executor.Executor
	timeout int

	name    string
	keyring string
}

// New returns an Updater for the model. The model must have completed the full refresh.
func New(m *cluster.Model, exec executor.Executor, connectTimeout int) *Updater {
	if connectTimeout <= 0 {
		connectTimeout = api.DefaultConnectTimeout
	}

	return &Updater{
		model:   m,
		exec:    exec,
		timeout: connectTimeout,
	}
}

// Connect checks that the cluster can be reached with the local credentials.
// Failing to connect is reported as false rather than as an error.
func (u *Updater) Connect(ctx context.Context) bool {
	if u.model.MonMembers == nil || u.model.Defaults == nil {
		slog.Error("Refusing to connect with an unrefreshed cluster model", "cluster", u.model.ClusterName)

		return false
	}

	name, keyringPath, ok := u.credentials()
	if !ok {
		slog.Warn("No local credentials to connect with", "cluster", u.model.ClusterName)

		return false
	}

	_, err := u.exec.Run(ctx, "ceph",
		"--connect-timeout", strconv.Itoa(u.timeout),
		"--cluster", u.model.ClusterName,
		"--name", name,
		"--keyring", keyringPath,
		"health")
	if err != nil {
		slog.Warn("Failed to connect to cluster", "cluster", u.model.ClusterName, "name", name, "err", err)

		return false
	}

	u.name = name
	u.keyring = keyringPath

	return true
}

// AuthAdd registers the local keyring of the given type with the cluster.
func (u *Updater) AuthAdd(ctx context.Context, keyringType api.KeyringType) error {
	entity, path, err := u.target(keyringType)
	if err != nil {
		return err
	}

	slog.Info("Registering keyring with cluster", "cluster", u.model.ClusterName, "entity", entity)

	_, err = u.run(ctx, "auth", "add", entity, "-i", path)
	if err != nil {
		return fmt.Errorf("%w: auth add %s: %w", ErrRemoteOperation, entity, err)
	}

	return nil
}

// AuthDel removes the given keyring type's entity from the cluster.
func (u *Updater) AuthDel(ctx context.Context, keyringType api.KeyringType) error {
	entity, _, err := u.target(keyringType)
	if err != nil {
		return err
	}

	slog.Info("Removing keyring from cluster", "cluster", u.model.ClusterName, "entity", entity)

	_, err = u.run(ctx, "auth", "del", entity)
	if err != nil {
		return fmt.Errorf("%w: auth del %s: %w", ErrRemoteOperation, entity, err)
	}

	return nil
}

func (u *Updater) target(keyringType api.KeyringType) (string, string, error) {
	if u.name == "" {
		return "", "", ErrNotConnected
	}

	entity, err := keyring.Entity(keyringType)
	if err != nil {
		return "", "", err
	}

	f, err := keyring.New(u.model, keyringType)
	if err != nil {
		return "", "", err
	}

	return entity, f.Path(), nil
}

func (u *Updater) run(ctx context.Context, args ...string) (*executor.Result, error) {
	cmdArgs := []string{
		"--cluster", u.model.ClusterName,
		"--name", u.name,
		"--keyring", u.keyring,
	}

	return u.exec.Run(ctx, "ceph", append(cmdArgs, args...)...)
}

// credentials picks the identity to talk to the cluster as. Monitors use their own
// key when available, everything else needs the admin keyring.
func (u *Updater) credentials() (string, string, bool) {
	if cluster.NewQuery(u.model).IsMonitor() {
		monKeyring := filepath.Join(u.model.Default("mon_data"), "keyring")
		if fileExists(monKeyring) {
			return "mon.", monKeyring, true
		}
	}

	adminKeyring := u.model.Default("keyring_admin")
	if adminKeyring != "" && fileExists(adminKeyring) {
		return "client.admin", adminKeyring, true
	}

	return "", "", false
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && !fi.IsDir()
}
