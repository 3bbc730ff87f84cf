package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/renderer"
)

// Runner encapsulates pipeline execution with caching. CLI and server both
// use it so cache keys stay consistent.
//
// The Runner holds no per-run state. Multiple goroutines can share one
// Runner as long as the cache backend is safe for concurrent use.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Fetcher *httputil.Fetcher
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil keyer uses [cache.DefaultKeyer]; a nil
// cache disables caching. The background fetcher shares the cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Fetcher: httputil.NewFetcher(httputil.NewStore(c, keyer, 24*time.Hour), logger),
		Logger:  logger,
	}
}

// ComputeLayout returns the layout of raw, from cache when possible.
func (r *Runner) ComputeLayout(ctx context.Context, raw graph.RawSnapshot, opts Options) (graph.Layout, bool, error) {
	opts.SetLayoutDefaults()
	if err := opts.Layout.Validate(); err != nil {
		return graph.Layout{}, false, err
	}

	hash, err := graph.Hash(raw)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("hash snapshot: %w", err)
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				r.Logger.Debug("layout cache hit", "key", key)
				return cached, true, nil
			}
		}
	}

	l, err := GenerateLayout(ctx, raw, opts.Layout)
	if err != nil {
		return graph.Layout{}, false, err
	}
	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, TTLLayout); err != nil {
			r.Logger.Warn("layout cache write failed", "err", err)
		}
	}
	return l, false, nil
}

// Execute renders snapshots in order into one scene and exports it.
//
// Malformed snapshots abort the run before anything is drawn. Render tasks
// that fail at fire time are collected in [Result.Failures]; the scene keeps
// its previous state for each and the run continues.
func (r *Runner) Execute(ctx context.Context, snapshots []graph.RawSnapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sceneKey, err := r.SceneKey(snapshots, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{SceneKey: sceneKey, Artifacts: make(map[string][]byte)}
	res.Stats.Snapshots = len(snapshots)

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, sceneKey, opts); ok {
			r.Logger.Info("artifacts from cache", "formats", opts.Formats)
			res.Artifacts = artifacts
			res.CacheInfo.RenderHit = true
			return res, nil
		}
	}

	renderStart := time.Now()
	rend, err := r.renderAll(snapshots, opts, res)
	if err != nil {
		return nil, err
	}
	res.Scene = rend.Scene()
	res.Renderer = rend.Stats()
	res.Stats.RenderTime = time.Since(renderStart)
	res.Stats.NodeCount = res.Scene.Root().NodeCount()
	res.Stats.EdgeCount = res.Scene.Root().EdgeCount()

	r.Logger.Info("rendered scene",
		"snapshots", len(snapshots),
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"failed", len(res.Failures),
		"duration", res.Stats.RenderTime)

	exportStart := time.Now()
	artifacts, err := Export(ctx, res.Scene, opts, r.Fetcher)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.Stats.ExportTime = time.Since(exportStart)

	// A run with failed tasks depends on where it failed, not only on its
	// inputs, so it is not cached.
	if len(res.Failures) == 0 {
		for format, data := range artifacts {
			key := r.Keyer.ArtifactKey(sceneKey, opts.ArtifactKeyOpts(format))
			if err := r.Cache.Set(ctx, key, data, TTLArtifact); err != nil {
				r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			}
		}
	}

	r.Logger.Info("exported", "formats", opts.Formats, "duration", res.Stats.ExportTime)
	return res, nil
}

func (r *Runner) renderAll(snapshots []graph.RawSnapshot, opts Options, res *Result) (*renderer.Renderer, error) {
	ropts := append(opts.RendererOptions(), renderer.WithOnComplete(func(o renderer.Outcome) {
		if o.Err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("render#%d: %w", o.Generation, o.Err))
		}
	}))
	rend, err := renderer.New(opts.Width, opts.Height, ropts...)
	if err != nil {
		return nil, err
	}

	exec := rend.Executor()
	for i, raw := range snapshots {
		if opts.ResetsBefore(i) {
			rend.Reset()
		}
		if err := rend.Render(raw); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", i, err)
		}
		if opts.Sequential {
			// Failures are recorded through the completion callback.
			_ = exec.Drain()
		}
	}
	_ = exec.Drain()
	return rend, nil
}

// SceneKey hashes everything that determines the final scene.
func (r *Runner) SceneKey(snapshots []graph.RawSnapshot, opts Options) (string, error) {
	seq := struct {
		Hashes           []string `json:"hashes"`
		ResetBefore      []int    `json:"reset_before"`
		Sequential       bool     `json:"sequential"`
		CancelSuperseded bool     `json:"cancel_superseded"`
		Mode             string   `json:"mode"`
	}{
		Hashes:           make([]string, len(snapshots)),
		ResetBefore:      opts.ResetBefore,
		Sequential:       opts.Sequential,
		CancelSuperseded: opts.CancelSuperseded,
		Mode:             opts.SceneMode().String(),
	}
	for i, raw := range snapshots {
		h, err := graph.Hash(raw)
		if err != nil {
			return "", fmt.Errorf("hash snapshot %d: %w", i, err)
		}
		seq.Hashes[i] = h
	}
	data, err := json.Marshal(seq)
	if err != nil {
		return "", err
	}
	return r.Keyer.LayoutKey(cache.Hash(data), opts.LayoutKeyOpts()), nil
}

func (r *Runner) cachedArtifacts(ctx context.Context, sceneKey string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(sceneKey, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
