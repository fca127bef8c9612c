package cli

import (
	"fmt"
	"strings"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/cephconf"
)

// Config command.
type cmdConfig struct {
	root *cmdRoot
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("config")
	cmd.Short = "Manage the cluster configuration file"
	cmd.Long = cli.FormatSection("Description", "Manage the cluster configuration file")

	// Init.
	initCmd := cmdConfigInit{root: c.root}
	cmd.AddCommand(initCmd.command())

	// Show.
	showCmd := cmdConfigShow{root: c.root}
	cmd.AddCommand(showCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// Init.
type cmdConfigInit struct {
	root *cmdRoot

	flagMonInitialMembers []string
	flagMonHosts          []string
	flagClient            []string
}

func (c *cmdConfigInit) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("init")
	cmd.Short = "Write the cluster configuration file"
	cmd.Long = cli.FormatSection("Description", `Write the cluster configuration file

The cluster UUID is used as the fsid and a new one is generated if unset.`)
	cmd.Example = cli.FormatSection("", `ceph-cfg config init --mon-initial-members mon1,mon2 --mon-host 10.0.0.1,10.0.0.2
    Write /etc/ceph/ceph.conf for a new cluster with two monitors.`)
	cmd.Flags().StringSliceVar(&c.flagMonInitialMembers, "mon-initial-members", nil, "Initial monitor names``")
	cmd.Flags().StringSliceVar(&c.flagMonHosts, "mon-host", nil, "Monitor addresses``")
	cmd.Flags().StringArrayVar(&c.flagClient, "client", nil, "Client section setting as key=value, may be repeated``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdConfigInit) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	opts, err := c.root.loadOptions(cmd)
	if err != nil {
		return err
	}

	name := opts.ClusterName
	if name == "" {
		name = api.DefaultClusterName
	}

	cluster := api.ServiceCephCluster{
		FSID:           opts.ClusterUUID,
		MonInitMembers: c.flagMonInitialMembers,
		Monitors:       c.flagMonHosts,
	}

	if len(c.flagClient) > 0 {
		cluster.ClientConfig = map[string]string{}

		for _, entry := range c.flagClient {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || key == "" {
				return fmt.Errorf("invalid client setting %q, expected key=value", entry)
			}

			cluster.ClientConfig[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	fsid, err := cephconf.Write(opts.ConfDir, name, cluster)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with fsid %s\n", cephconf.Path(opts.ConfDir, name), fsid)

	return err
}

// Show.
type cmdConfigShow struct {
	root *cmdRoot
}

func (c *cmdConfigShow) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("show")
	cmd.Short = "Show the effective settings"
	cmd.Long = cli.FormatSection("Description", `Show the effective settings

Secrets and keyring content are omitted.`)

	cmd.RunE = c.run

	return cmd
}

func (c *cmdConfigShow) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	opts, err := c.root.loadOptions(cmd)
	if err != nil {
		return err
	}

	opts.Secret = ""
	opts.KeyContent = ""

	return printYAML(cmd.OutOrStdout(), opts.WithDefaults())
}
