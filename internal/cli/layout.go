package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// layoutCommand prints the settled coordinates for one snapshot.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		scene   sceneFlags
		output  string
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Compute node coordinates for a snapshot",
		Long: `Compute node coordinates for a snapshot.

The layout runs the same fixed-iteration simulation a render would and
writes the positions as JSON. Use -o - to print to stdout. Results are
cached unless --no-cache is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().PipelineOptions()
			scene.apply(cmd, &opts)
			opts.Refresh = refresh
			opts.Logger = c.Logger
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	scene.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore a cached layout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	snaps, err := pipeline.LoadSnapshots([]string{input})
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	l, hit, err := runner.ComputeLayout(ctx, snaps[0], opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	path := output
	if path == "" {
		path = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	data, err := graph.MarshalLayout(l)
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	if path == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(len(l.Nodes), len(snaps[0].Edges), hit)
	printDetail("%d iterations", l.Iterations)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}
