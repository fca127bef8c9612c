package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lxc/incus/v6/shared/ask"
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lxc/incus-os/ceph-cfg/api"
	"github.com/lxc/incus-os/ceph-cfg/internal/keyring"
	"github.com/lxc/incus-os/ceph-cfg/internal/lifecycle"
)

// Keyring command.
type cmdKeyring struct {
	root *cmdRoot
}

func (c *cmdKeyring) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("keyring")
	cmd.Short = "Manage local keyrings"
	cmd.Long = cli.FormatSection("Description", `Manage local keyrings

Supported keyring types are admin, mon, osd, mds, rgw and mgr.`)

	// Auth add.
	authAddCmd := cmdKeyringAuth{
		root:        c.root,
		name:        "auth-add",
		description: "Register the keyring with the cluster",
		do:          lifecycle.AuthAdd,
	}
	cmd.AddCommand(authAddCmd.command())

	// Auth del.
	authDelCmd := cmdKeyringAuth{
		root:        c.root,
		name:        "auth-del",
		description: "Remove the keyring's entity from the cluster",
		do:          lifecycle.AuthDel,
	}
	cmd.AddCommand(authDelCmd.command())

	// Create.
	createCmd := cmdKeyringCreate{root: c.root}
	cmd.AddCommand(createCmd.command())

	// List.
	listCmd := cmdKeyringList{root: c.root}
	cmd.AddCommand(listCmd.command())

	// Present.
	presentCmd := cmdKeyringPresent{root: c.root}
	cmd.AddCommand(presentCmd.command())

	// Purge.
	purgeCmd := cmdKeyringPurge{root: c.root}
	cmd.AddCommand(purgeCmd.command())

	// Save.
	saveCmd := cmdKeyringSave{root: c.root}
	cmd.AddCommand(saveCmd.command())

	// Show.
	showCmd := cmdKeyringShow{root: c.root}
	cmd.AddCommand(showCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

func printYAML(w io.Writer, data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s", out)

	return err
}

// Auth add and del.
type cmdKeyringAuth struct {
	root *cmdRoot

	name        string
	description string
	do          func(ctx context.Context, opts api.Options, options ...lifecycle.Option) error
}

func (c *cmdKeyringAuth) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage(c.name, "[<type>]")
	cmd.Short = c.description
	cmd.Long = cli.FormatSection("Description", c.description+`

Monitor and admin keyrings are never registered with or removed from the cluster.`)

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringAuth) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	return c.do(cmd.Context(), opts, c.root.args.Options...)
}

// Create.
type cmdKeyringCreate struct {
	root *cmdRoot

	flagSecret string
}

func (c *cmdKeyringCreate) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("create", "[<type>]")
	cmd.Short = "Create a new keyring"
	cmd.Long = cli.FormatSection("Description", `Create a new keyring

A new secret is generated unless one is provided. Existing keyrings are never overwritten.`)
	cmd.Example = cli.FormatSection("", `ceph-cfg keyring create osd
    Create the OSD bootstrap keyring with a new secret.`)
	cmd.Flags().StringVar(&c.flagSecret, "secret", "", "Base64 encoded secret``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringCreate) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	k, err := lifecycle.Create(cmd.Context(), opts, c.root.args.Options...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s keyring at %s\n", k.Type, k.Path)

	return err
}

// List.
type cmdKeyringList struct {
	root *cmdRoot

	flagFormat string
}

func (c *cmdKeyringList) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("list")
	cmd.Aliases = []string{"ls"}
	cmd.Short = "List local keyrings"
	cmd.Long = cli.FormatSection("Description", "List local keyrings")
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.root.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringList) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	opts, err := c.root.loadOptions(cmd)
	if err != nil {
		return err
	}

	entries, err := lifecycle.List(cmd.Context(), opts, c.root.args.Options...)
	if err != nil {
		return err
	}

	data := [][]string{}

	for _, entry := range entries {
		entity, err := keyring.Entity(entry.Type)
		if err != nil {
			return err
		}

		present := "NO"
		if entry.Present {
			present = "YES"
		}

		data = append(data, []string{string(entry.Type), entity, present})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{
		"TYPE",
		"ENTITY",
		"PRESENT",
	}

	return cli.RenderTable(cmd.OutOrStdout(), c.flagFormat, header, data, entries)
}

// Present.
type cmdKeyringPresent struct {
	root *cmdRoot
}

func (c *cmdKeyringPresent) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("present", "[<type>]")
	cmd.Short = "Check whether a keyring exists"
	cmd.Long = cli.FormatSection("Description", "Check whether a keyring exists")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringPresent) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	present, err := lifecycle.Present(cmd.Context(), opts, c.root.args.Options...)
	if err != nil {
		return err
	}

	return printYAML(cmd.OutOrStdout(), api.KeyringPresence{Type: opts.KeyringType, Present: present})
}

// Purge.
type cmdKeyringPurge struct {
	root *cmdRoot

	flagForce bool
}

func (c *cmdKeyringPurge) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("purge", "[<type>]")
	cmd.Short = "Remove a local keyring"
	cmd.Long = cli.FormatSection("Description", "Remove a local keyring")
	cmd.Flags().BoolVar(&c.flagForce, "force", false, "Don't ask for confirmation")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringPurge) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	err = lifecycle.Validate(opts)
	if err != nil {
		return err
	}

	// Ask for confirmation if needed.
	if !c.flagForce {
		asker := ask.NewAsker(bufio.NewReader(cmd.InOrStdin()))

		confirm, err := asker.AskBool(fmt.Sprintf("Are you sure you want to remove the %q keyring? (yes/no) [default=no]: ", opts.KeyringType), "no")
		if err != nil {
			return err
		}

		if !confirm {
			return nil
		}
	}

	removed, err := lifecycle.Purge(cmd.Context(), opts, c.root.args.Options...)
	if err != nil {
		return err
	}

	if !removed {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "No %s keyring to remove\n", opts.KeyringType)

		return err
	}

	return nil
}

// Save.
type cmdKeyringSave struct {
	root *cmdRoot

	flagSecret     string
	flagKeyContent string
	flagKeyFile    string
}

func (c *cmdKeyringSave) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("save", "[<type>]")
	cmd.Short = "Save a keyring from a secret or keyring content"
	cmd.Long = cli.FormatSection("Description", `Save a keyring from a secret or keyring content

Any existing keyring is replaced. When both a secret and keyring content are given, the secret is used.`)
	cmd.Example = cli.FormatSection("", `ceph-cfg keyring save mon --key-file - < ceph.mon.keyring
    Save the monitor keyring read from standard input.`)
	cmd.Flags().StringVar(&c.flagSecret, "secret", "", "Base64 encoded secret``")
	cmd.Flags().StringVar(&c.flagKeyContent, "key-content", "", "Full keyring content``")
	cmd.Flags().StringVar(&c.flagKeyFile, "key-file", "", "Read the keyring content from a file, \"-\" for standard input``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringSave) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	if c.flagKeyFile != "" {
		var content []byte

		if c.flagKeyFile == "-" {
			content, err = io.ReadAll(cmd.InOrStdin())
		} else {
			content, err = os.ReadFile(c.flagKeyFile)
		}

		if err != nil {
			return err
		}

		opts.KeyContent = string(content)
	}

	_, err = lifecycle.Save(cmd.Context(), opts, c.root.args.Options...)

	return err
}

// Show.
type cmdKeyringShow struct {
	root *cmdRoot
}

func (c *cmdKeyringShow) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("show", "[<type>]")
	cmd.Short = "Show keyring details"
	cmd.Long = cli.FormatSection("Description", "Show keyring details")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyringShow) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	opts, err := c.root.keyringOptions(cmd, args)
	if err != nil {
		return err
	}

	k, err := lifecycle.Show(cmd.Context(), opts, c.root.args.Options...)
	if err != nil {
		return err
	}

	return printYAML(cmd.OutOrStdout(), k)
}
