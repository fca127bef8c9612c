package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

// DefaultConfigPath is where the configuration file is looked for when --config isn't set.
const DefaultConfigPath = "/etc/ceph-cfg"

// optionFlags maps option keys to the command line flags overriding them.
var optionFlags = map[string]string{
	"cluster_name":    "cluster",
	"cluster_uuid":    "cluster-uuid",
	"secret":          "secret",
	"key_content":     "key-content",
	"conf_dir":        "conf-dir",
	"data_dir":        "data-dir",
	"run_dir":         "run-dir",
	"executor":        "executor",
	"connect_timeout": "connect-timeout",
}

// loadOptions layers the configuration file, the environment and the command line flags into api.Options.
func (c *cmdRoot) loadOptions(cmd *cobra.Command) (api.Options, error) {
	opts := api.Options{}

	v := viper.New()

	// Defaults, so that every key can be set from the environment.
	for key := range optionFlags {
		v.SetDefault(key, "")
	}

	v.SetDefault("keyring_type", "")
	v.SetDefault("conf_dir", api.DefaultConfDir)
	v.SetDefault("data_dir", api.DefaultDataDir)
	v.SetDefault("run_dir", api.DefaultRunDir)
	v.SetDefault("executor", string(api.ExecutorDirect))
	v.SetDefault("connect_timeout", api.DefaultConnectTimeout)

	// Configuration file.
	v.SetConfigType("yaml")

	if c.flagConfig != "" {
		v.SetConfigFile(c.flagConfig)
	} else {
		v.SetConfigName("ceph-cfg")

		paths := c.args.ConfigPaths
		if paths == nil {
			paths = []string{DefaultConfigPath}
		}

		for _, path := range paths {
			v.AddConfigPath(path)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return opts, err
		}
	}

	// Environment.
	v.SetEnvPrefix("ceph_cfg")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Command line.
	for key, name := range optionFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}

		err = v.BindPFlag(key, flag)
		if err != nil {
			return opts, err
		}
	}

	err = v.Unmarshal(&opts)
	if err != nil {
		return opts, err
	}

	return opts, nil
}

// keyringOptions loads the options for a keyring command, taking the keyring type from the first argument if present.
func (c *cmdRoot) keyringOptions(cmd *cobra.Command, args []string) (api.Options, error) {
	opts, err := c.loadOptions(cmd)
	if err != nil {
		return opts, err
	}

	if len(args) > 0 {
		opts.KeyringType = api.KeyringType(args[0])
	}

	return opts, nil
}
