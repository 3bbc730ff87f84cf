// Package cli implements the forcegraph command-line interface.
//
// # Commands
//
//   - render: feed snapshot files through a renderer and export the scene
//   - layout: print node coordinates for one snapshot
//   - serve: run the HTTP host
//   - watch: re-render a snapshot file whenever it changes
//   - step: step through queued renders interactively
//   - cache: inspect or clear the local cache
//
// # Configuration
//
// Settings come from ~/.config/forcegraph/config.toml (or --config) and are
// overridden by flags. All commands support --verbose (-v) for debug
// logging; the logger travels through context.Context.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/config"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

const appName = "forcegraph"

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a CLI logging to w.
func New(w io.Writer) *CLI {
	return &CLI{Logger: newLogger(w, log.InfoLevel)}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "forcegraph renders network snapshots with a force layout",
		Long: `forcegraph lays out network graph snapshots with a deterministic force
simulation and draws them into a scene that keeps node identity across
updates. Scenes export to SVG, PNG, PDF, JSON and Graphviz DOT.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.stepCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}

// setup applies --verbose, loads the config and attaches the logger to the
// command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.Logger.SetLevel(log.DebugLevel)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configFile(), "cache", cfg.Cache.Backend)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	var backend cache.Cache = cache.NewNullCache()
	if !noCache {
		var err error
		if backend, err = c.settings().OpenCache(ctx); err != nil {
			return nil, err
		}
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

// outputPath names the file for one format. With a single format an
// explicit output is used as is; otherwise its extension is replaced.
func outputPath(output, input, format string, single bool) string {
	if output != "" && single {
		return output
	}
	return basePath(output, input) + "." + pipeline.Extension(format)
}

// basePath strips a known output extension from output, or derives the
// base from input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Longest first, so "x.neato.svg" loses ".neato.svg" and not ".svg".
	exts := make([]string, 0, 2*len(pipeline.ValidFormats))
	for f := range pipeline.ValidFormats {
		exts = append(exts, "."+pipeline.Extension(f), "."+f)
	}
	sort.Slice(exts, func(i, j int) bool { return len(exts[i]) > len(exts[j]) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}
