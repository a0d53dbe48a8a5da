package cli

import (
	"context"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it with ctx.
//
// Logging goes to stderr at info level; --verbose (-v) switches to debug.
// metrics, when non-nil, is served on /metrics by "stackaudit serve".
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Stderr, nil); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, stderr io.Writer, metrics http.Handler) error {
	return newRoot(stderr, metrics).ExecuteContext(ctx)
}

// newRoot wires the --verbose flag into the CLI's logger ahead of the
// config-loading pre-run.
func newRoot(stderr io.Writer, metrics http.Handler) *cobra.Command {
	var verbose bool

	c := New(stderr, LogInfo)
	c.Metrics = metrics
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c.SetLogLevel(levelFor(verbose))

		if loadConfig != nil {
			return loadConfig(cmd, args)
		}
		return nil
	}
	return root
}
