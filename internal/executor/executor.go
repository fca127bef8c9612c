// Package executor runs the external Ceph tooling on behalf of the keyring operations.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lxc/incus-os/ceph-cfg/api"
)

// Result holds the captured output of a successful command.
type Result struct {
	Stdout string
	Stderr string
}

// Executor runs an external command to completion.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// New returns the executor matching the requested mode.
func New(mode api.ExecutorMode) (Executor, error) {
	switch mode {
	case api.ExecutorDirect, "":
		return &Direct{}, nil
	case api.ExecutorSystemd:
		return &Systemd{}, nil
	default:
		return nil, fmt.Errorf("unsupported executor %q", mode)
	}
}

func quoteArgument(arg string) string {
	if strings.Contains(arg, " ") {
		return "'" + arg + "'"
	}

	return arg
}

// CommandLine renders a command the way it gets logged.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArgument(name))

	for _, arg := range args {
		parts = append(parts, quoteArgument(arg))
	}

	return strings.Join(parts, " ")
}

func logCommand(variant string, name string, args []string) {
	slog.Debug("Executing command", "executor", variant, "command", CommandLine(name, args...))
}
