package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

// GenerateLayout normalizes raw, runs the force simulation to completion
// and returns the node coordinates. raw is not modified.
func GenerateLayout(ctx context.Context, raw graph.RawSnapshot, p layout.Params) (graph.Layout, error) {
	snap, err := graph.Normalize(raw)
	if err != nil {
		return graph.Layout{}, err
	}
	n, err := layout.Iterations(p.AlphaMin, p.AlphaDecay)
	if err != nil {
		return graph.Layout{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, snap.NodeCount())
	start := time.Now()
	err = layout.Run(snap, p)
	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, err
	}
	return layout.Result(snap, n), nil
}
