package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Serialized Node Positions
// =============================================================================

// Layout is the serialization format for a computed layout. It is what the
// layout cache stores and what `forcegraph layout` prints.
type Layout struct {
	Iterations int        `json:"iterations" bson:"iterations"`
	Nodes      []Position `json:"nodes" bson:"nodes"`
	Bounds     Bounds     `json:"bounds" bson:"bounds"`
}

// Position is the computed coordinate of one node.
type Position struct {
	ID string  `json:"id" bson:"id"`
	X  float64 `json:"x" bson:"x"`
	Y  float64 `json:"y" bson:"y"`
}

// Bounds is the axis-aligned box around all node centers.
type Bounds struct {
	MinX float64 `json:"min_x" bson:"min_x"`
	MinY float64 `json:"min_y" bson:"min_y"`
	MaxX float64 `json:"max_x" bson:"max_x"`
	MaxY float64 `json:"max_y" bson:"max_y"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Positions extracts the positions of all positioned nodes in snapshot order.
func (s *Snapshot) Positions() []Position {
	out := make([]Position, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.positioned {
			out = append(out, Position{ID: n.ID, X: n.X, Y: n.Y})
		}
	}
	return out
}

// ApplyLayout copies positions from l onto matching nodes. Nodes absent from
// l are left untouched. It returns the number of nodes updated.
func (s *Snapshot) ApplyLayout(l Layout) int {
	applied := 0
	for _, p := range l.Nodes {
		if n, ok := s.byID[p.ID]; ok {
			n.SetPosition(p.X, p.Y)
			applied++
		}
	}
	return applied
}

// MarshalLayout serializes a layout to indented JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes to a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a layout as JSON to path.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
