// Command dotgraph builds labeled graphs from JSON, YAML or TOML documents,
// emits them as Graphviz DOT and renders them.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/internal/cli"
	"github.com/matzehuels/dotgraph/pkg/errors"
)

// Exit statuses besides 0.
const (
	exitFailure  = 1
	exitUsage    = 2   // rejected input, engine, format or path
	exitRenderer = 3   // Graphviz missing, failed or timed out
	exitCanceled = 130 // SIGINT
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	c := cli.New(stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SilenceErrors = true

	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
	root.PersistentPreRunE = beforeEach(root.PersistentPreRunE, func() {
		if *verbose {
			c.SetLogLevel(cli.LogDebug)
		}
	})

	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != exitCanceled {
		fmt.Fprintf(stderr, "dotgraph: %s\n", errors.UserMessage(err))
	}
	return code
}

// beforeEach runs fn once flags are parsed, then the existing hook.
func beforeEach(next func(*cobra.Command, []string) error, fn func()) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fn()
		if next == nil {
			return nil
		}
		return next(cmd, args)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if stderrors.Is(err, context.Canceled) {
		return exitCanceled
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidEngine, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeFileNotFound, errors.ErrCodeUnsupported:
		return exitUsage
	case errors.ErrCodeExecutableNotFound, errors.ErrCodeRendererFailed, errors.ErrCodeTimeout:
		return exitRenderer
	default:
		return exitFailure
	}
}
