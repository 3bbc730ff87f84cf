package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Canvas is the fixed drawing surface chosen at construction.
type Canvas struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background,omitempty"`

	// Zoom is always false. Pan and zoom are disabled on the canvas.
	Zoom bool `json:"zoom"`
}

// NodeVisual is a circle drawn for one node.
type NodeVisual struct {
	Key     string  `json:"key"`
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	R       float64 `json:"r"`
	Fill    string  `json:"fill"`
	Tooltip string  `json:"tooltip,omitempty"`
}

// EdgeVisual is a line drawn for one edge.
type EdgeVisual struct {
	Key         string  `json:"key"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	StrokeWidth float64 `json:"stroke_width"`
	Stroke      string  `json:"stroke,omitempty"`
}

// Group is the root container of drawn visuals. Generation counts how many
// times the scene's root has been replaced.
type Group struct {
	Generation int

	edges     []*EdgeVisual
	nodes     []*NodeVisual
	edgeByKey map[string]*EdgeVisual
	nodeByKey map[string]*NodeVisual
}

func newGroup(generation int) *Group {
	return &Group{
		Generation: generation,
		edgeByKey:  make(map[string]*EdgeVisual),
		nodeByKey:  make(map[string]*NodeVisual),
	}
}

// Edges returns copies of the edge layer in drawing order.
func (g *Group) Edges() []EdgeVisual {
	out := make([]EdgeVisual, len(g.edges))
	for i, e := range g.edges {
		out[i] = *e
	}
	return out
}

// Nodes returns copies of the node layer in drawing order.
func (g *Group) Nodes() []NodeVisual {
	out := make([]NodeVisual, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = *n
	}
	return out
}

// Node looks up a node visual by key.
func (g *Group) Node(key string) (NodeVisual, bool) {
	n, ok := g.nodeByKey[key]
	if !ok {
		return NodeVisual{}, false
	}
	return *n, true
}

// Edge looks up an edge visual by key.
func (g *Group) Edge(key string) (EdgeVisual, bool) {
	e, ok := g.edgeByKey[key]
	if !ok {
		return EdgeVisual{}, false
	}
	return *e, true
}

// EdgeCount returns the number of edge visuals.
func (g *Group) EdgeCount() int { return len(g.edges) }

// NodeCount returns the number of node visuals.
func (g *Group) NodeCount() int { return len(g.nodes) }

// Empty reports whether the group holds no visuals.
func (g *Group) Empty() bool { return len(g.edges) == 0 && len(g.nodes) == 0 }

// Scene is a canvas, its current root group and the shared tooltip. A Scene
// is not safe for concurrent use.
type Scene struct {
	canvas  Canvas
	root    *Group
	tooltip Tooltip
	now     func() time.Time
}

// New creates an empty scene on a width x height canvas.
func New(width, height int, background string) (*Scene, error) {
	if err := errors.ValidateCanvasSize(float64(width), float64(height)); err != nil {
		return nil, err
	}
	if err := errors.ValidateBackground(background); err != nil {
		return nil, err
	}
	return &Scene{
		canvas: Canvas{Width: width, Height: height, Background: background},
		root:   newGroup(0),
		now:    time.Now,
	}, nil
}

// Canvas returns the scene's canvas.
func (s *Scene) Canvas() Canvas { return s.canvas }

// Root returns the current root group.
func (s *Scene) Root() *Group { return s.root }

// Tooltip returns the tooltip state.
func (s *Scene) Tooltip() Tooltip { return s.tooltip }

// SetClock replaces the time source used to stamp tooltip transitions.
func (s *Scene) SetClock(now func() time.Time) { s.now = now }

// ResetGroup discards every drawn visual by replacing the root group with a
// fresh empty one. Canvas and tooltip are kept.
func (s *Scene) ResetGroup() {
	s.root = newGroup(s.root.Generation + 1)
}

// String summarizes the scene for logs and the step TUI.
func (s *Scene) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d canvas, group %d: %d edges, %d nodes",
		s.canvas.Width, s.canvas.Height, s.root.Generation, s.root.EdgeCount(), s.root.NodeCount())
	if s.tooltip.Node != "" {
		fmt.Fprintf(&b, ", tooltip on %q", s.tooltip.Node)
	}
	return b.String()
}
