package lifecycle

import (
	"errors"

	"github.com/lxc/incus-os/ceph-cfg/internal/cluster"
	"github.com/lxc/incus-os/ceph-cfg/internal/keyring"
	"github.com/lxc/incus-os/ceph-cfg/internal/remote"
)

// ErrUsage is returned when required options are missing or conflicting.
var ErrUsage = errors.New("invalid usage")

// ErrGuard is returned when an operation isn't allowed for the requested keyring type.
var ErrGuard = errors.New("operation not allowed for keyring type")

// ErrPrecondition is returned when the local state doesn't allow the operation yet.
var ErrPrecondition = errors.New("precondition failed")

// ErrConnectivity is returned when the cluster can't be reached.
var ErrConnectivity = errors.New("cannot connect to cluster")

// ErrConfig is returned when the local cluster configuration is missing or incomplete.
var ErrConfig = cluster.ErrConfig

// ErrValidation is returned when a supplied secret isn't valid base64.
var ErrValidation = keyring.ErrInvalidSecret

// ErrRemoteOperation is returned when the cluster rejected a registry change.
var ErrRemoteOperation = remote.ErrRemoteOperation

// ErrKeyringExists is returned when creating a keyring that's already present.
var ErrKeyringExists = keyring.ErrKeyringExists
