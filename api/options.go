package api

// ExecutorMode selects how external commands get spawned.
type ExecutorMode string

const (
	// ExecutorDirect runs commands as direct child processes.
	ExecutorDirect ExecutorMode = "direct"

	// ExecutorSystemd runs commands as transient systemd units.
	ExecutorSystemd ExecutorMode = "systemd"
)

// Options holds the settings for a single keyring operation.
type Options struct {
	ClusterName string      `json:"cluster_name" mapstructure:"cluster_name" yaml:"cluster_name"`
	ClusterUUID string      `json:"cluster_uuid" mapstructure:"cluster_uuid" yaml:"cluster_uuid"`
	KeyringType KeyringType `json:"keyring_type" mapstructure:"keyring_type" yaml:"keyring_type"`

	Secret     string `json:"secret,omitempty"      mapstructure:"secret"      yaml:"secret,omitempty"`
	KeyContent string `json:"key_content,omitempty" mapstructure:"key_content" yaml:"key_content,omitempty"`

	ConfDir string `json:"conf_dir" mapstructure:"conf_dir" yaml:"conf_dir"`
	DataDir string `json:"data_dir" mapstructure:"data_dir" yaml:"data_dir"`
	RunDir  string `json:"run_dir"  mapstructure:"run_dir"  yaml:"run_dir"`

	Executor       ExecutorMode `json:"executor"        mapstructure:"executor"        yaml:"executor"`
	ConnectTimeout int          `json:"connect_timeout" mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// Default values for Options.
const (
	DefaultClusterName    = "ceph"
	DefaultConfDir        = "/etc/ceph"
	DefaultDataDir        = "/var/lib/ceph"
	DefaultRunDir         = "/var/run/ceph"
	DefaultConnectTimeout = 5
)

// WithDefaults returns a copy of the options with every unset path, executor and timeout filled in.
// The cluster name is left alone as it may still need resolving from the cluster UUID.
func (o Options) WithDefaults() Options {
	if o.ConfDir == "" {
		o.ConfDir = DefaultConfDir
	}

	if o.DataDir == "" {
		o.DataDir = DefaultDataDir
	}

	if o.RunDir == "" {
		o.RunDir = DefaultRunDir
	}

	if o.Executor == "" {
		o.Executor = ExecutorDirect
	}

	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}

	return o
}
