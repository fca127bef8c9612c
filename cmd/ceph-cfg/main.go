// Package main is used for the ceph-cfg tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/ceph-cfg/cli"
)

var version = "dev"

type cmdGlobal struct {
	flagDebug   bool
	flagVerbose bool
	flagVersion bool
}

func main() {
	err := do(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func do(ctx context.Context) error {
	// Global flags.
	globalCmd := cmdGlobal{}

	app := cli.NewCommand(&cli.Args{DefaultListFormat: "table"})
	app.SilenceErrors = true
	app.PersistentFlags().BoolVarP(&globalCmd.flagDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&globalCmd.flagVerbose, "verbose", "v", false, "Show all information messages")
	app.Flags().BoolVar(&globalCmd.flagVersion, "version", false, "Print binary version")
	app.PersistentPreRun = globalCmd.preRun

	run := app.Run
	app.Run = func(cmd *cobra.Command, args []string) {
		if globalCmd.flagVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ceph-cfg version "+version)

			return
		}

		run(cmd, args)
	}

	// Help handling.
	app.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return app.ExecuteContext(ctx)
}

// preRun installs the default logger for the requested verbosity.
func (c *cmdGlobal) preRun(_ *cobra.Command, _ []string) {
	level := slog.LevelWarn

	if c.flagVerbose {
		level = slog.LevelInfo
	}

	if c.flagDebug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
