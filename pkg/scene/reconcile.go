package scene

import (
	"fmt"
	"math"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// Mode selects what Reconcile does with visuals that already exist.
type Mode int

const (
	// ModeFreeze leaves existing visuals exactly as first drawn.
	ModeFreeze Mode = iota
	// ModeRefresh re-attributes existing visuals from the new records.
	ModeRefresh
)

// String returns the mode name used in config files and flags.
func (m Mode) String() string {
	switch m {
	case ModeFreeze:
		return "freeze"
	case ModeRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "freeze" or "refresh". The empty string is ModeFreeze.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "freeze":
		return ModeFreeze, nil
	case "refresh":
		return ModeRefresh, nil
	default:
		return ModeFreeze, errors.New(errors.ErrCodeInvalidConfig, "unknown update mode %q (want freeze or refresh)", s)
	}
}

// JoinCount tallies one collection's join.
type JoinCount struct {
	Entered int `json:"entered"`
	Updated int `json:"updated"`
	Exited  int `json:"exited"`
}

// Diff reports what a Reconcile changed.
type Diff struct {
	Edges JoinCount `json:"edges"`
	Nodes JoinCount `json:"nodes"`
}

// Changed reports whether any visual was added, modified or removed.
func (d Diff) Changed() bool {
	return d.Edges != (JoinCount{}) || d.Nodes != (JoinCount{})
}

// Reconcile updates the scene's current group to show snap. Every node of
// snap must already be positioned. Updated counts records that matched an
// existing visual, whether or not mode changed it.
//
// On error the group is left exactly as it was.
func Reconcile(s *Scene, snap *graph.Snapshot, mode Mode) (Diff, error) {
	for _, n := range snap.Nodes {
		if !n.Positioned() {
			return Diff{}, errors.New(errors.ErrCodeLayoutFailed, "node %q has no position", n.ID)
		}
		if !finite(n.X) || !finite(n.Y) {
			return Diff{}, errors.New(errors.ErrCodeLayoutFailed, "node %q has non-finite position (%v, %v)", n.ID, n.X, n.Y)
		}
	}

	g := s.root
	var diff Diff

	edges, edgeByKey := joinLayer(g.edges, snap.Edges,
		func(e *graph.Edge) string { return e.Key },
		edgeVisual,
		func(v *EdgeVisual) string { return v.Key },
		mode, &diff.Edges)

	nodes, nodeByKey := joinLayer(g.nodes, snap.Nodes,
		func(n *graph.Node) string { return n.ID },
		nodeVisual,
		func(v *NodeVisual) string { return v.Key },
		mode, &diff.Nodes)

	g.edges, g.edgeByKey = edges, edgeByKey
	g.nodes, g.nodeByKey = nodes, nodeByKey
	return diff, nil
}

// joinLayer computes the next state of one layer without touching the
// current one. Survivors keep their relative order; entered visuals follow
// in record order. A key never maps to more than one visual: only the first
// record and the first visual with a given key take part.
func joinLayer[R any, V any](
	current []*V,
	records []R,
	recordKey func(R) string,
	build func(R) *V,
	visualKey func(*V) string,
	mode Mode,
	count *JoinCount,
) ([]*V, map[string]*V) {
	want := make(map[string]R, len(records))
	for _, r := range records {
		if key := recordKey(r); !hasKey(want, key) {
			want[key] = r
		}
	}

	next := make([]*V, 0, len(records))
	nextByKey := make(map[string]*V, len(records))

	for _, v := range current {
		key := visualKey(v)
		r, ok := want[key]
		if !ok || hasKey(nextByKey, key) {
			count.Exited++
			continue
		}
		count.Updated++
		if mode == ModeRefresh {
			v = build(r)
		}
		next = append(next, v)
		nextByKey[key] = v
	}

	for _, r := range records {
		key := recordKey(r)
		if hasKey(nextByKey, key) {
			continue
		}
		v := build(r)
		count.Entered++
		next = append(next, v)
		nextByKey[key] = v
	}
	return next, nextByKey
}

func hasKey[T any](m map[string]T, key string) bool {
	_, ok := m[key]
	return ok
}

func nodeVisual(n *graph.Node) *NodeVisual {
	return &NodeVisual{
		Key:     n.ID,
		CX:      n.X,
		CY:      n.Y,
		R:       n.Size,
		Fill:    n.Color,
		Tooltip: n.Tooltip,
	}
}

func edgeVisual(e *graph.Edge) *EdgeVisual {
	return &EdgeVisual{
		Key:         e.Key,
		Source:      e.Source.ID,
		Target:      e.Target.ID,
		X1:          e.Source.X,
		Y1:          e.Source.Y,
		X2:          e.Target.X,
		Y2:          e.Target.Y,
		StrokeWidth: e.Width,
		Stroke:      e.Color,
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
