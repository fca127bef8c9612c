// Package lifecycle implements the keyring operations: creating, checking, purging and saving
// keyrings locally, and adding or removing them from the cluster's authentication registry.
//
// Every operation builds its own cluster model, refreshes it in a fixed order and only then
// touches the local keyring store or the cluster.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cluster"
	"github.com/lxc/incus-os/ceph-cfg/internal/executor"
	"github.com/lxc/incus-os/ceph-cfg/internal/keyring"
	"github.com/lxc/incus-os/ceph-cfg/internal/remote"
)

// ConnectorFunc returns the connector used to reach the cluster for a refreshed model.
type ConnectorFunc func(m *cluster.Model, exec executor.Executor, connectTimeout int) remote.Connector

type settings struct {
	exec      executor.Executor
	hostname  func() (string, error)
	connector ConnectorFunc
}

// Option alters how an operation reaches the host and the cluster.
type Option func(*settings)

// WithExecutor overrides the command executor selected through the options.
func WithExecutor(exec executor.Executor) Option {
	return func(s *settings) {
		s.exec = exec
	}
}

// WithHostname overrides how the local hostname is looked up.
func WithHostname(hostname func() (string, error)) Option {
	return func(s *settings) {
		s.hostname = hostname
	}
}

// WithConnector overrides how the cluster connection is established.
func WithConnector(connector ConnectorFunc) Option {
	return func(s *settings) {
		s.connector = connector
	}
}

func defaultConnector(m *cluster.Model, exec executor.Executor, connectTimeout int) remote.Connector {
	return remote.New(m, exec, connectTimeout)
}

// run holds the state of a single operation.
type run struct {
	opts    api.Options
	model   *cluster.Model
	updater *cluster.Updater
	exec    executor.Executor

	connector ConnectorFunc
}

func newRun(opts api.Options, options []Option) (*run, error) {
	s := settings{connector: defaultConnector}
	for _, option := range options {
		option(&s)
	}

	if s.exec == nil {
		exec, err := executor.New(opts.Executor)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}

		s.exec = exec
	}

	m := cluster.NewModel(opts)

	return &run{
		opts:      opts,
		model:     m,
		updater:   cluster.NewUpdater(m, s.exec, s.hostname),
		exec:      s.exec,
		connector: s.connector,
	}, nil
}

func (r *run) facade() (*keyring.Facade, error) {
	return keyring.New(r.model, r.opts.KeyringType)
}

// Validate checks the options shared by every keyring operation without touching the host.
func Validate(opts api.Options) error {
	_, err := validate(opts)

	return err
}

// validate checks the options shared by every keyring operation.
func validate(opts api.Options) (api.Options, error) {
	if opts.KeyringType == "" {
		return opts, fmt.Errorf("%w: keyring_type is not set", ErrUsage)
	}

	if !slices.Contains(api.KeyringTypes, opts.KeyringType) {
		return opts, fmt.Errorf("%w: unknown keyring_type %q", ErrUsage, opts.KeyringType)
	}

	return opts.WithDefaults(), nil
}

// prepare validates the options and runs the full refresh sequence.
func prepare(ctx context.Context, opts api.Options, options []Option) (*run, error) {
	opts, err := validate(opts)
	if err != nil {
		return nil, err
	}

	r, err := newRun(opts, options)
	if err != nil {
		return nil, err
	}

	err = r.updater.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Create writes a new local keyring, generating a secret unless one is supplied.
func Create(ctx context.Context, opts api.Options, options ...Option) (*api.Keyring, error) {
	r, err := prepare(ctx, opts, options)
	if err != nil {
		return nil, err
	}

	f, err := r.facade()
	if err != nil {
		return nil, err
	}

	slog.Info("Creating keyring", "cluster", r.model.ClusterName, "type", r.opts.KeyringType, "path", f.Path())

	return f.Create(r.opts.Secret)
}

// Present returns whether the local keyring exists. An incomplete cluster configuration
// doesn't prevent the check.
func Present(ctx context.Context, opts api.Options, options ...Option) (bool, error) {
	opts, err := validate(opts)
	if err != nil {
		return false, err
	}

	r, err := newRun(opts, options)
	if err != nil {
		return false, err
	}

	err = r.updater.PrepareBestEffort(ctx)
	if err != nil {
		return false, err
	}

	f, err := r.facade()
	if err != nil {
		return false, err
	}

	return f.Present(), nil
}

// Purge removes the local keyring and returns whether one was removed.
func Purge(ctx context.Context, opts api.Options, options ...Option) (bool, error) {
	r, err := prepare(ctx, opts, options)
	if err != nil {
		return false, err
	}

	f, err := r.facade()
	if err != nil {
		return false, err
	}

	removed, err := f.Remove()
	if err != nil {
		return false, err
	}

	if removed {
		slog.Info("Removed keyring", "cluster", r.model.ClusterName, "type", r.opts.KeyringType, "path", f.Path())
	}

	return removed, nil
}

// Save writes the local keyring from either a secret or raw keyring content.
// The secret wins when both are set.
func Save(ctx context.Context, opts api.Options, options ...Option) (*api.Keyring, error) {
	if opts.Secret == "" && opts.KeyContent == "" {
		return nil, fmt.Errorf("%w: set either key_content or secret", ErrUsage)
	}

	r, err := prepare(ctx, opts, options)
	if err != nil {
		return nil, err
	}

	f, err := r.facade()
	if err != nil {
		return nil, err
	}

	if r.opts.Secret != "" {
		err = keyring.ValidateSecret(r.opts.Secret)
		if err != nil {
			return nil, err
		}

		slog.Info("Saving keyring secret", "cluster", r.model.ClusterName, "type", r.opts.KeyringType, "path", f.Path())

		return f.WriteSecret(r.opts.Secret)
	}

	slog.Info("Saving keyring content", "cluster", r.model.ClusterName, "type", r.opts.KeyringType, "path", f.Path())

	return f.WriteContent(r.opts.KeyContent)
}

// AuthAdd registers the local keyring with the cluster's authentication registry.
func AuthAdd(ctx context.Context, opts api.Options, options ...Option) error {
	return authChange(ctx, opts, options, remote.Connector.AuthAdd)
}

// AuthDel removes the keyring's entity from the cluster's authentication registry.
func AuthDel(ctx context.Context, opts api.Options, options ...Option) error {
	return authChange(ctx, opts, options, remote.Connector.AuthDel)
}

// authChange runs a registry change. Monitor and admin keyrings only ever exist locally
// and are refused before anything else happens.
func authChange(ctx context.Context, opts api.Options, options []Option, change func(remote.Connector, context.Context, api.KeyringType) error) error {
	if opts.KeyringType == api.KeyringTypeMon || opts.KeyringType == api.KeyringTypeAdmin {
		return fmt.Errorf("%w: keyring_type is %s", ErrGuard, opts.KeyringType)
	}

	r, err := prepare(ctx, opts, options)
	if err != nil {
		return err
	}

	if cluster.NewQuery(r.model).IsMonitor() {
		err = r.updater.RefreshMonStatus(ctx)
		if err != nil {
			return err
		}
	}

	f, err := r.facade()
	if err != nil {
		return err
	}

	if !f.Present() {
		return fmt.Errorf("%w: keyring not present: %q", ErrPrecondition, f.Path())
	}

	conn := r.connector(r.model, r.exec, r.opts.ConnectTimeout)
	if !conn.Connect(ctx) {
		return fmt.Errorf("%w %q", ErrConnectivity, r.model.ClusterName)
	}

	return change(conn, ctx, r.opts.KeyringType)
}

// List reports which keyring types are present locally.
func List(ctx context.Context, opts api.Options, options ...Option) ([]api.KeyringPresence, error) {
	r, err := newRun(opts.WithDefaults(), options)
	if err != nil {
		return nil, err
	}

	err = r.updater.PrepareBestEffort(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]api.KeyringPresence, len(api.KeyringTypes))

	var g errgroup.Group

	for i, keyringType := range api.KeyringTypes {
		g.Go(func() error {
			f, err := keyring.New(r.model, keyringType)
			if err != nil {
				return err
			}

			results[i] = api.KeyringPresence{Type: keyringType, Present: f.Present()}

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Show returns the local keyring. Like Present, it tolerates an incomplete cluster configuration.
func Show(ctx context.Context, opts api.Options, options ...Option) (*api.Keyring, error) {
	opts, err := validate(opts)
	if err != nil {
		return nil, err
	}

	r, err := newRun(opts, options)
	if err != nil {
		return nil, err
	}

	err = r.updater.PrepareBestEffort(ctx)
	if err != nil {
		return nil, err
	}

	f, err := r.facade()
	if err != nil {
		return nil, err
	}

	return f.Read()
}
