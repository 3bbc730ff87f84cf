package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// Run lays out snap in place. Every node receives finite X and Y, or Run
// returns an error with code LAYOUT_FAILED and leaves the nodes untouched.
// An empty snapshot runs the full schedule as no-op ticks.
func Run(snap *graph.Snapshot, p Params) error {
	sim, err := NewSimulation(snap, p)
	if err != nil {
		return err
	}
	for !sim.Done() {
		sim.Tick()
	}
	return sim.Apply()
}

// Result packages the positions of snap as a serializable [graph.Layout].
func Result(snap *graph.Snapshot, iterations int) graph.Layout {
	box := Bounds(snap)
	return graph.Layout{
		Iterations: iterations,
		Nodes:      snap.Positions(),
		Bounds: graph.Bounds{
			MinX: box.Min.X, MinY: box.Min.Y,
			MaxX: box.Max.X, MaxY: box.Max.Y,
		},
	}
}

// Bounds returns the box around all positioned node centers. It is the zero
// box when no node is positioned.
func Bounds(snap *graph.Snapshot) r2.Box {
	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	seen := false
	for _, n := range snap.Nodes {
		if !n.Positioned() {
			continue
		}
		seen = true
		box.Min.X = math.Min(box.Min.X, n.X)
		box.Min.Y = math.Min(box.Min.Y, n.Y)
		box.Max.X = math.Max(box.Max.X, n.X)
		box.Max.Y = math.Max(box.Max.Y, n.Y)
	}
	if !seen {
		return r2.Box{}
	}
	return box
}

// PaddedBounds grows Bounds by each node's radius so whole circles fit.
func PaddedBounds(snap *graph.Snapshot) r2.Box {
	box := Bounds(snap)
	var pad float64
	for _, n := range snap.Nodes {
		pad = math.Max(pad, n.Size)
	}
	pv := r2.Vec{X: pad, Y: pad}
	return r2.Box{Min: r2.Sub(box.Min, pv), Max: r2.Add(box.Max, pv)}
}

// Centroid returns the mean position of all positioned nodes.
func Centroid(snap *graph.Snapshot) r2.Vec {
	var sum r2.Vec
	count := 0
	for _, n := range snap.Nodes {
		if n.Positioned() {
			sum = r2.Add(sum, r2.Vec{X: n.X, Y: n.Y})
			count++
		}
	}
	if count == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/float64(count), sum)
}

func layoutFailed(id string, x, y float64) error {
	return errors.New(errors.ErrCodeLayoutFailed, "node %q has non-finite position (%v, %v)", id, x, y)
}
