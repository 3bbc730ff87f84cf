package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/renderer"
	"github.com/matzehuels/forcegraph/pkg/schedule"
)

const watchDebounce = 200 * time.Millisecond

func (c *CLI) watchCommand() *cobra.Command {
	var (
		scene   sceneFlags
		export  exportFlags
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-render a snapshot file whenever it changes",
		Long: `Watch renders FILE, then renders it again every time it is written.
All renders go to the same scene, so nodes that survive an edit keep
their visual and only entering and exiting nodes change. Artifacts are
rewritten after each completed render.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().PipelineOptions()
			scene.apply(cmd, &opts)
			if err := export.apply(cmd, &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			w, err := newWatcher(args[0], export.output, opts, runner.Fetcher)
			if err != nil {
				return err
			}
			return w.run(cmd.Context())
		},
	}

	scene.bind(cmd.Flags())
	export.bind(cmd.Flags())
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache fetched backgrounds")
	return cmd
}

// watcher owns one renderer fed from a file. The renderer is only touched
// on the loop goroutine.
type watcher struct {
	file    string
	output  string
	opts    pipeline.Options
	fetcher *httputil.Fetcher
	logger  *log.Logger

	rend *renderer.Renderer
	loop *schedule.Loop

	// written receives the paths of each completed export. Used by tests.
	written chan []string
}

func newWatcher(file, output string, opts pipeline.Options, fetcher *httputil.Fetcher) (*watcher, error) {
	w := &watcher{
		file:    filepath.Clean(file),
		output:  output,
		opts:    opts,
		fetcher: fetcher,
		logger:  opts.Logger,
	}
	if w.logger == nil {
		w.logger = log.Default()
	}

	exec := schedule.NewExecutor()
	rend, err := renderer.New(opts.Width, opts.Height, append(opts.RendererOptions(),
		renderer.WithExecutor(exec),
		renderer.WithOnComplete(w.completed),
	)...)
	if err != nil {
		return nil, err
	}
	w.rend = rend
	w.loop = schedule.NewLoop(exec, w.logger)
	return w, nil
}

// run renders the file once, then again on every change, until ctx ends.
func (w *watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	// Editors often replace the file, so watch its directory.
	if err := fsw.Add(filepath.Dir(w.file)); err != nil {
		return fmt.Errorf("watch %s: %w", w.file, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- w.loop.Run(ctx) }()

	w.reload(ctx)
	printInfo("Watching %s", StyleValue.Render(w.file))

	changed := make(chan struct{}, 1)
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			<-loopDone
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.file || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("file changed", "op", ev.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})

		case <-changed:
			w.reload(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// reload reads the file and schedules a render. A file that fails to load
// or normalize is reported and leaves the scene alone.
func (w *watcher) reload(ctx context.Context) {
	raw, err := graph.ReadSnapshotFile(w.file)
	if err != nil {
		w.logger.Error("load failed", "file", w.file, "err", err)
		return
	}
	var renderErr error
	if err := w.loop.Do(ctx, func() { renderErr = w.rend.Render(raw) }); err != nil {
		return
	}
	if renderErr != nil {
		w.logger.Error("snapshot rejected", "file", w.file, "err", renderErr)
	}
}

// completed runs on the loop goroutine after each render task.
func (w *watcher) completed(out renderer.Outcome) {
	switch {
	case out.Err != nil, out.Skipped:
		return
	case w.rend.Pending() > 0:
		// A newer snapshot is queued; export once it lands.
		return
	}
	w.logger.Info("rendered",
		"nodes", out.Nodes,
		"entered", out.Diff.Nodes.Entered,
		"exited", out.Diff.Nodes.Exited,
		"elapsed", out.Duration.Round(time.Millisecond))

	artifacts, err := pipeline.Export(context.Background(), w.rend.Scene(), w.opts, w.fetcher)
	if err != nil {
		w.logger.Error("export failed", "err", err)
		return
	}
	paths, err := writeArtifacts(artifacts, w.output, w.file)
	if err != nil {
		w.logger.Error("write failed", "err", err)
		return
	}
	for _, p := range paths {
		w.logger.Debug("wrote", "path", p)
	}
	if w.written != nil {
		w.written <- paths
	}
}
