package renderer

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/scene"
	"github.com/matzehuels/forcegraph/pkg/schedule"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithBackground sets the canvas background image reference.
func WithBackground(ref string) Option {
	return func(r *Renderer) { r.background = ref }
}

// WithExecutor submits render tasks to exec instead of a private executor.
// Several renderers may share one executor.
func WithExecutor(exec *schedule.Executor) Option {
	return func(r *Renderer) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLayoutParams overrides the force simulation parameters.
func WithLayoutParams(p layout.Params) Option {
	return func(r *Renderer) { r.params = p }
}

// WithMode selects how existing visuals are treated. Default is
// scene.ModeFreeze.
func WithMode(m scene.Mode) Option {
	return func(r *Renderer) { r.mode = m }
}

// WithCancelSuperseded skips a render task when a later Render has been
// called before it fires. Only the newest snapshot is drawn.
func WithCancelSuperseded() Option {
	return func(r *Renderer) { r.cancelSuperseded = true }
}

// WithLogger sets the logger. Default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOnComplete registers a callback invoked on the executor's thread after
// every render task, including failed and skipped ones.
func WithOnComplete(fn func(Outcome)) Option {
	return func(r *Renderer) { r.onComplete = fn }
}
