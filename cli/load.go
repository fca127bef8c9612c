package cli

import (
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/ceph-cfg/internal/lifecycle"
)

// Args contains the configuration for a new ceph-cfg CLI instance.
type Args struct {
	DefaultListFormat string
	ConfigPaths       []string
	Options           []lifecycle.Option
}

// NewCommand returns a new cobra Command suitable for inclusion by downstreams.
func NewCommand(args *Args) *cobra.Command {
	cmd := cmdRoot{
		args: args,
	}

	return cmd.command()
}
