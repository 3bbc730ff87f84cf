package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/scene"
	"github.com/matzehuels/forcegraph/pkg/schedule"
)

// State is the lifecycle state of a Renderer.
type State int

const (
	// Idle means no render task is queued.
	Idle State = iota
	// RenderScheduled means at least one render task is queued.
	RenderScheduled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RenderScheduled:
		return "render-scheduled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes one fired render task.
type Outcome struct {
	Generation uint64
	Nodes      int
	Edges      int
	Diff       scene.Diff
	Skipped    bool
	Duration   time.Duration
	Err        error
}

// Stats counts render tasks over the renderer's lifetime.
type Stats struct {
	Submitted int        `json:"submitted"`
	Completed int        `json:"completed"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Resets    int        `json:"resets"`
	LastDiff  scene.Diff `json:"last_diff"`
}

// Renderer owns a scene and feeds it snapshots through an executor. It is
// not safe for concurrent use; hosts serialize calls, for example with
// schedule.Loop.
type Renderer struct {
	scene            *scene.Scene
	exec             *schedule.Executor
	params           layout.Params
	mode             scene.Mode
	cancelSuperseded bool
	background       string
	logger           *log.Logger
	onComplete       func(Outcome)

	pending    int
	generation uint64
	stats      Stats
}

// New builds a renderer with an empty scene on a width x height canvas.
// Zoom is disabled. It fails on an invalid canvas size, background
// reference or layout parameters.
func New(width, height int, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		params: layout.DefaultParams(),
		mode:   scene.ModeFreeze,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = schedule.NewExecutor()
	}
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	s, err := scene.New(width, height, r.background)
	if err != nil {
		return nil, err
	}
	r.scene = s
	return r, nil
}

// Render validates raw and schedules a render of it. A malformed snapshot
// is reported here and nothing is queued. raw is copied and never modified.
func (r *Renderer) Render(raw graph.RawSnapshot) error {
	snap, err := graph.Normalize(raw)
	if err != nil {
		return err
	}

	r.generation++
	gen := r.generation
	r.pending++
	r.stats.Submitted++
	r.exec.Submit(fmt.Sprintf("render#%d", gen), func() error {
		return r.fire(gen, snap)
	})

	r.logger.Debug("render scheduled", "generation", gen, "nodes", snap.NodeCount(), "edges", snap.EdgeCount(), "pending", r.pending)
	observability.Renderer().OnRenderScheduled(context.Background(), r.pending)
	return nil
}

// fire is the body of a render task.
func (r *Renderer) fire(gen uint64, snap *graph.Snapshot) (err error) {
	start := time.Now()
	out := Outcome{Generation: gen, Nodes: snap.NodeCount(), Edges: snap.EdgeCount()}
	defer func() {
		r.pending--
		out.Duration = time.Since(start)
		out.Err = err
		if r.onComplete != nil {
			r.onComplete(out)
		}
	}()

	if r.cancelSuperseded && gen != r.generation {
		out.Skipped = true
		r.stats.Skipped++
		r.logger.Debug("render superseded", "generation", gen, "latest", r.generation)
		observability.Renderer().OnRenderSkipped(context.Background())
		return nil
	}

	if err = layout.Run(snap, r.params); err == nil {
		out.Diff, err = scene.Reconcile(r.scene, snap, r.mode)
	}
	observability.Renderer().OnRenderComplete(context.Background(), out.Nodes, out.Edges, time.Since(start), err)
	if err != nil {
		r.stats.Failed++
		r.logger.Error("render failed", "generation", gen, "err", err)
		return err
	}

	r.stats.Completed++
	r.stats.LastDiff = out.Diff
	r.logger.Debug("render complete",
		"generation", gen,
		"entered", out.Diff.Nodes.Entered,
		"exited", out.Diff.Nodes.Exited,
		"elapsed", time.Since(start).Round(time.Microsecond))
	return nil
}

// Reset discards all drawn visuals by replacing the scene's root group.
// Queued render tasks are left alone and will draw into the new group.
func (r *Renderer) Reset() {
	r.scene.ResetGroup()
	r.stats.Resets++
	r.logger.Debug("scene reset", "group", r.scene.Root().Generation, "pending", r.pending)
	observability.Renderer().OnReset(context.Background())
}

// State returns Idle when no render task of this renderer is queued.
func (r *Renderer) State() State {
	if r.pending > 0 {
		return RenderScheduled
	}
	return Idle
}

// Pending returns the number of queued render tasks of this renderer.
func (r *Renderer) Pending() int { return r.pending }

// Scene returns the live scene. Callers must not use it concurrently with
// the executor.
func (r *Renderer) Scene() *scene.Scene { return r.scene }

// Executor returns the executor render tasks are submitted to.
func (r *Renderer) Executor() *schedule.Executor { return r.exec }

// Mode returns the update mode.
func (r *Renderer) Mode() scene.Mode { return r.mode }

// Stats returns lifetime counters.
func (r *Renderer) Stats() Stats { return r.stats }

// PointerEnter shows the tooltip of the node visual key at (x, y).
func (r *Renderer) PointerEnter(key string, x, y float64) error {
	return r.scene.PointerEnter(key, x, y)
}

// PointerLeave fades the tooltip out.
func (r *Renderer) PointerLeave(key string) error {
	return r.scene.PointerLeave(key)
}
