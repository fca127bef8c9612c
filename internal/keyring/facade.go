// Package keyring manages the keyrings stored on the local system for each Ceph daemon identity.
package keyring

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"
	"github.com/moby/sys/atomicwriter"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cluster"
)

// ErrKeyringExists is returned when creating a keyring that's already present.
var ErrKeyringExists = errors.New("keyring already exists")

// ErrUnknownType is returned for keyring types outside of the supported set.
var ErrUnknownType = errors.New("unknown keyring type")

type typeInfo struct {
	entity string
	caps   map[string]string
}

var types = map[api.KeyringType]typeInfo{
	api.KeyringTypeAdmin: {
		entity: "client.admin",
		caps:   map[string]string{"mon": "allow *", "osd": "allow *", "mds": "allow *", "mgr": "allow *"},
	},
	api.KeyringTypeMon: {
		entity: "mon.",
		caps:   map[string]string{"mon": "allow *"},
	},
	api.KeyringTypeOSD: {
		entity: "client.bootstrap-osd",
		caps:   map[string]string{"mon": "allow profile bootstrap-osd"},
	},
	api.KeyringTypeMDS: {
		entity: "client.bootstrap-mds",
		caps:   map[string]string{"mon": "allow profile bootstrap-mds"},
	},
	api.KeyringTypeRGW: {
		entity: "client.bootstrap-rgw",
		caps:   map[string]string{"mon": "allow profile bootstrap-rgw"},
	},
	api.KeyringTypeMGR: {
		entity: "client.bootstrap-mgr",
		caps:   map[string]string{"mon": "allow profile bootstrap-mgr"},
	},
}

// Entity returns the cluster entity name used by a keyring type.
func Entity(keyringType api.KeyringType) (string, error) {
	info, ok := types[keyringType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, keyringType)
	}

	return info.entity, nil
}

// Facade operates on the local keyring of a single type.
type Facade struct {
	keyringType api.KeyringType
	info        typeInfo
	path        string
}

// New returns a Facade for the keyring type. The model's defaults must have been refreshed.
func New(m *cluster.Model, keyringType api.KeyringType) (*Facade, error) {
	info, ok := types[keyringType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, keyringType)
	}

	if m.Defaults == nil {
		return nil, fmt.Errorf("%w: keyring paths need the defaults", cluster.ErrNotRefreshed)
	}

	path := m.Default("keyring_" + string(keyringType))
	if path == "" {
		return nil, fmt.Errorf("no keyring path known for %q", keyringType)
	}

	return &Facade{
		keyringType: keyringType,
		info:        info,
		path:        path,
	}, nil
}

// Path returns the keyring's location on disk.
func (f *Facade) Path() string {
	return f.path
}

// Create writes a new keyring, generating a secret if none is provided.
// An existing keyring is never overwritten.
func (f *Facade) Create(secret string) (*api.Keyring, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", ErrKeyringExists, f.path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if secret == "" {
		secret, err = GenerateSecret()
		if err != nil {
			return nil, err
		}
	} else {
		err = ValidateSecret(secret)
		if err != nil {
			return nil, err
		}
	}

	return f.writeSecret(secret, true)
}

// Present returns true if a well-formed keyring for the type exists.
func (f *Facade) Present() bool {
	_, err := f.Read()

	return err == nil
}

// Read parses the local keyring.
func (f *Facade) Read() (*api.Keyring, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	entries, err := Parse(content)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Entity != f.info.entity {
			continue
		}

		err = ValidateSecret(entry.Key)
		if err != nil {
			return nil, err
		}

		return &api.Keyring{
			Type:    f.keyringType,
			Entity:  entry.Entity,
			Path:    f.path,
			Secret:  entry.Key,
			Caps:    entry.Caps,
			Content: string(content),
		}, nil
	}

	return nil, fmt.Errorf("keyring %q has no entry for %q", f.path, f.info.entity)
}

// Remove deletes the local keyring and returns whether anything was removed.
func (f *Facade) Remove() (bool, error) {
	err := os.Remove(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// WriteSecret validates the secret and writes it as the keyring, replacing any existing one.
func (f *Facade) WriteSecret(secret string) (*api.Keyring, error) {
	err := ValidateSecret(secret)
	if err != nil {
		return nil, err
	}

	return f.writeSecret(secret, false)
}

// WriteContent writes the provided keyring text as-is, replacing any existing keyring.
func (f *Facade) WriteContent(content string) (*api.Keyring, error) {
	err := f.write([]byte(content), false)
	if err != nil {
		return nil, err
	}

	record := &api.Keyring{
		Type:    f.keyringType,
		Entity:  f.info.entity,
		Path:    f.path,
		Content: content,
	}

	// Fill in the details when the content is readable.
	entries, err := Parse([]byte(content))
	if err == nil {
		for _, entry := range entries {
			if entry.Entity == f.info.entity {
				record.Secret = entry.Key
				record.Caps = entry.Caps
			}
		}
	}

	return record, nil
}

func (f *Facade) writeSecret(secret string, exclusive bool) (*api.Keyring, error) {
	content := Render(f.info.entity, secret, f.info.caps)

	err := f.write([]byte(content), exclusive)
	if err != nil {
		return nil, err
	}

	return &api.Keyring{
		Type:    f.keyringType,
		Entity:  f.info.entity,
		Path:    f.path,
		Secret:  secret,
		Caps:    maps.Clone(f.info.caps),
		Content: content,
	}, nil
}

// write stores the keyring. In exclusive mode, an existing keyring is never replaced.
func (f *Facade) write(content []byte, exclusive bool) error {
	reverter := revert.New()
	defer reverter.Fail()

	// Create the parent directories if missing, dropping them again on failure.
	dir := filepath.Dir(f.path)

	created, err := missingAncestor(dir)
	if err != nil {
		return err
	}

	if created != "" {
		err = os.MkdirAll(dir, 0o755)
		if err != nil {
			return err
		}

		reverter.Add(func() { _ = os.RemoveAll(created) })
	}

	if exclusive {
		err = linkFile(f.path, content, 0o600)
		if errors.Is(err, os.ErrExist) {
			// The directories now hold a concurrently created keyring.
			reverter.Success()

			return fmt.Errorf("%w: %q", ErrKeyringExists, f.path)
		}
	} else {
		err = atomicwriter.WriteFile(f.path, content, 0o600)
	}

	if err != nil {
		return err
	}

	reverter.Success()

	return nil
}

// missingAncestor returns the top-most directory of dir that doesn't exist yet,
// or an empty string if dir already exists.
func missingAncestor(dir string) (string, error) {
	missing := ""

	for {
		_, err := os.Stat(dir)
		if err == nil {
			return missing, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		missing = dir

		parent := filepath.Dir(dir)
		if parent == dir {
			return missing, nil
		}

		dir = parent
	}
}

// linkFile writes the content to a temporary file next to path, then hard links it into place.
// The link fails with os.ErrExist if path already exists.
func linkFile(path string, content []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	err = tmp.Chmod(perm)
	if err != nil {
		return err
	}

	_, err = tmp.Write(content)
	if err != nil {
		return err
	}

	err = tmp.Sync()
	if err != nil {
		return err
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Link(tmp.Name(), path)
}
