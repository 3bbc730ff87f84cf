package graph

import (
	"fmt"
	"math"

	errs "github.com/matzehuels/forcegraph/pkg/errors"
)

// MalformedSnapshotError reports a snapshot that cannot be rendered.
// Exactly one of NodeIndex or EdgeIndex is non-negative.
type MalformedSnapshotError struct {
	NodeIndex int
	EdgeIndex int
	ID        string
	Reason    string
}

// Error implements the error interface.
func (e *MalformedSnapshotError) Error() string {
	switch {
	case e.EdgeIndex >= 0:
		return fmt.Sprintf("malformed snapshot: edge %d: %s", e.EdgeIndex, e.Reason)
	case e.ID != "":
		return fmt.Sprintf("malformed snapshot: node %d (%q): %s", e.NodeIndex, e.ID, e.Reason)
	default:
		return fmt.Sprintf("malformed snapshot: node %d: %s", e.NodeIndex, e.Reason)
	}
}

// Code returns the structured error code.
func (e *MalformedSnapshotError) Code() errs.Code { return errs.ErrCodeMalformedSnapshot }

func nodeError(i int, id ID, format string, args ...any) error {
	return &MalformedSnapshotError{NodeIndex: i, EdgeIndex: -1, ID: string(id), Reason: fmt.Sprintf(format, args...)}
}

func edgeError(i int, format string, args ...any) error {
	return &MalformedSnapshotError{NodeIndex: -1, EdgeIndex: i, Reason: fmt.Sprintf(format, args...)}
}

// Normalize validates raw and returns a private deep copy with edge
// endpoints resolved to node references. Node and edge order is preserved.
//
// It fails with *MalformedSnapshotError when a node lacks id, size or color,
// a size is not a positive finite number, an id is duplicated, or an edge
// references an id absent from the node set. raw is never modified.
func Normalize(raw RawSnapshot) (*Snapshot, error) {
	snap := &Snapshot{
		Nodes: make([]*Node, 0, len(raw.Nodes)),
		Edges: make([]*Edge, 0, len(raw.Edges)),
		byID:  make(map[string]*Node, len(raw.Nodes)),
	}

	for i, rn := range raw.Nodes {
		n, err := normalizeNode(i, rn)
		if err != nil {
			return nil, err
		}
		if _, dup := snap.byID[n.ID]; dup {
			return nil, nodeError(i, rn.ID, "duplicate id")
		}
		snap.byID[n.ID] = n
		snap.Nodes = append(snap.Nodes, n)
	}

	occurrences := make(map[string]int, len(raw.Edges))
	for i, re := range raw.Edges {
		src, ok := snap.byID[string(re.Source)]
		if !ok {
			return nil, edgeError(i, "source %q not found", re.Source)
		}
		dst, ok := snap.byID[string(re.Target)]
		if !ok {
			return nil, edgeError(i, "target %q not found", re.Target)
		}

		width := DefaultEdgeWidth
		if re.Width != nil {
			if !isFinite(*re.Width) || *re.Width < 0 {
				return nil, edgeError(i, "width must be a non-negative number")
			}
			width = *re.Width
		}

		pair := EdgeKey(src.ID, dst.ID, 0)
		snap.Edges = append(snap.Edges, &Edge{
			Key:    EdgeKey(src.ID, dst.ID, occurrences[pair]),
			Index:  i,
			Source: src,
			Target: dst,
			Width:  width,
			Color:  re.Color,
		})
		occurrences[pair]++
	}

	return snap, nil
}

func normalizeNode(i int, rn RawNode) (*Node, error) {
	switch {
	case rn.ID == "":
		return nil, nodeError(i, "", "missing id")
	case rn.Size == nil:
		return nil, nodeError(i, rn.ID, "missing size")
	case rn.Color == "":
		return nil, nodeError(i, rn.ID, "missing color")
	case !isFinite(*rn.Size) || *rn.Size <= 0:
		return nil, nodeError(i, rn.ID, "size must be a positive number, got %v", *rn.Size)
	}

	n := &Node{
		ID:      string(rn.ID),
		Index:   i,
		Size:    *rn.Size,
		Color:   rn.Color,
		Tooltip: rn.Tooltip,
	}
	if rn.X != nil && rn.Y != nil && isFinite(*rn.X) && isFinite(*rn.Y) {
		n.SetPosition(*rn.X, *rn.Y)
	}
	return n, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
