package cli

import (
	"fmt"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/ceph-cfg/internal/systemd"
)

// Host command.
type cmdHost struct {
	root *cmdRoot
}

func (c *cmdHost) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("host")
	cmd.Short = "Inspect the local host"
	cmd.Long = cli.FormatSection("Description", "Inspect the local host")

	// Init system.
	initSystemCmd := cmdHostInitSystem{root: c.root}
	cmd.AddCommand(initSystemCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// Init system.
type cmdHostInitSystem struct {
	root *cmdRoot
}

func (c *cmdHostInitSystem) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("init-system")
	cmd.Short = "Show the init system managing the host"
	cmd.Long = cli.FormatSection("Description", "Show the init system managing the host (systemd, upstart or sysV)")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdHostInitSystem) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	initSystem, err := systemd.DetectInitSystem(cmd.Context())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), initSystem)

	return err
}
