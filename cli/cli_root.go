package cli

import (
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

// Ceph configuration command.
type cmdRoot struct {
	args *Args

	flagConfig         string
	flagCluster        string
	flagClusterUUID    string
	flagConfDir        string
	flagDataDir        string
	flagRunDir         string
	flagExecutor       string
	flagConnectTimeout int
}

func (c *cmdRoot) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("ceph-cfg")
	cmd.Short = "Manage Ceph cluster configuration and keyrings"
	cmd.Long = cli.FormatSection("Description", `Manage Ceph cluster configuration and keyrings

Settings are read from the configuration file, then from CEPH_CFG_* environment variables
and finally from the command line flags.`)
	cmd.SilenceUsage = true
	cmd.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	cmd.PersistentFlags().StringVarP(&c.flagConfig, "config", "c", "", "Path to the configuration file``")
	cmd.PersistentFlags().StringVar(&c.flagCluster, "cluster", "", "Cluster name (default: looked up from the cluster UUID, then \"ceph\")``")
	cmd.PersistentFlags().StringVar(&c.flagClusterUUID, "cluster-uuid", "", "Cluster UUID (fsid)``")
	cmd.PersistentFlags().StringVar(&c.flagConfDir, "conf-dir", api.DefaultConfDir, "Configuration directory``")
	cmd.PersistentFlags().StringVar(&c.flagDataDir, "data-dir", api.DefaultDataDir, "Data directory``")
	cmd.PersistentFlags().StringVar(&c.flagRunDir, "run-dir", api.DefaultRunDir, "Runtime directory``")
	cmd.PersistentFlags().StringVar(&c.flagExecutor, "executor", string(api.ExecutorDirect), "How to run commands (direct|systemd)``")
	cmd.PersistentFlags().IntVar(&c.flagConnectTimeout, "connect-timeout", api.DefaultConnectTimeout, "Cluster connection timeout in seconds``")

	// Config.
	configCmd := cmdConfig{root: c}
	cmd.AddCommand(configCmd.command())

	// Host.
	hostCmd := cmdHost{root: c}
	cmd.AddCommand(hostCmd.command())

	// Keyring.
	keyringCmd := cmdKeyring{root: c}
	cmd.AddCommand(keyringCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}
