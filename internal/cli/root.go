package cli

import (
	"context"
	"os"
)

// Execute runs the forcegraph CLI with logging to stderr. ctx is cancelled
// on interrupt by the caller; long-running commands (serve, watch) stop
// when it is.
//
//	func main() {
//	    ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer cancel()
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	return New(os.Stderr).RootCommand().ExecuteContext(ctx)
}
