package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	scene   sceneFlags
	export  exportFlags
	refresh bool
	noCache bool
	// resetBefore lists snapshot indices before which the scene is reset.
	resetBefore []int
	sequential  bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Render snapshots into one scene and export it",
		Long: `Render feeds each snapshot file, in order, to one renderer and exports the
final scene. Nodes keep the visual they were first drawn with unless
--mode=refresh is given.`,
		Example: `  forcegraph render net.json
  forcegraph render t0.json t1.yaml -f svg,png -o out/net
  forcegraph render a.json b.json --reset-before 1 --sequential`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.renderOptions(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, popts, &opts)
		},
	}

	opts.scene.bind(cmd.Flags())
	opts.export.bind(cmd.Flags())
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached layouts and artifacts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the cache entirely")
	cmd.Flags().IntSliceVar(&opts.resetBefore, "reset-before", nil, "reset the scene before these snapshot indices")
	cmd.Flags().BoolVar(&opts.sequential, "sequential", false, "complete each render before submitting the next snapshot")
	return cmd
}

// renderOptions merges config values with the flags set on cmd.
func (c *CLI) renderOptions(cmd *cobra.Command, opts *renderOpts) (pipeline.Options, error) {
	popts := c.settings().PipelineOptions()
	opts.scene.apply(cmd, &popts)
	if err := opts.export.apply(cmd, &popts); err != nil {
		return popts, err
	}
	popts.Refresh = opts.refresh
	popts.ResetBefore = opts.resetBefore
	popts.Sequential = opts.sequential
	popts.Logger = c.Logger
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return popts, err
	}
	return popts, nil
}

func (c *CLI) runRender(ctx context.Context, files []string, popts pipeline.Options, opts *renderOpts) error {
	res, err := c.execute(ctx, files, popts, opts.noCache)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(res.Artifacts, opts.export.output, files[len(files)-1])
	if err != nil {
		return err
	}

	printSuccess("Rendered %d snapshot(s)", res.Stats.Snapshots)
	for _, p := range paths {
		printFile(p)
	}
	printRunStats(res)
	for _, f := range res.Failures {
		printWarning("%v", f)
	}
	return nil
}

// execute loads files and runs them through a pipeline runner.
func (c *CLI) execute(ctx context.Context, files []string, popts pipeline.Options, noCache bool) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)

	snaps, err := pipeline.LoadSnapshots(files)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d snapshot(s)...", len(snaps)))
	spinner.Start()
	res, err := runner.Execute(ctx, snaps, popts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Rendered %d snapshot(s)", len(snaps)))
	return res, nil
}

// writeArtifacts writes each artifact next to input, or to output. It
// returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, output, input string) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	single := len(formats) == 1
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := outputPath(output, input, f, single)
		if err := writeFile(p, artifacts[f]); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// writeFile writes data to path, or to stdout when path is "-".
func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
