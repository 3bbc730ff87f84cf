package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEdgeWidth is the stroke width used for edges that omit "width".
const DefaultEdgeWidth = 1.0

// =============================================================================
// ID - Node Identity
// =============================================================================

// ID identifies a node across snapshots. It decodes from JSON/YAML strings
// and numbers alike.
type ID string

// UnmarshalJSON accepts a string or a number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*id = ""
		return nil
	}
	*id = ID(value.Value)
	return nil
}

// =============================================================================
// Raw Snapshot - Wire Format
// =============================================================================

// RawSnapshot is a snapshot as delivered by the simulation.
type RawSnapshot struct {
	Nodes []RawNode `json:"nodes" yaml:"nodes"`
	Edges []RawEdge `json:"edges" yaml:"edges"`
}

// RawNode is a node description. Size and the seed coordinates are pointers
// so that a missing field can be told apart from zero.
type RawNode struct {
	ID      ID       `json:"id" yaml:"id"`
	Size    *float64 `json:"size" yaml:"size"`
	Color   string   `json:"color" yaml:"color"`
	Tooltip string   `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	X       *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y       *float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

// RawEdge is an edge description referencing nodes by id.
type RawEdge struct {
	Source ID       `json:"source" yaml:"source"`
	Target ID       `json:"target" yaml:"target"`
	Width  *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Color  string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (r RawSnapshot) Clone() RawSnapshot {
	out := RawSnapshot{}
	if r.Nodes != nil {
		out.Nodes = make([]RawNode, len(r.Nodes))
		for i, n := range r.Nodes {
			n.Size = cloneFloat(n.Size)
			n.X = cloneFloat(n.X)
			n.Y = cloneFloat(n.Y)
			out.Nodes[i] = n
		}
	}
	if r.Edges != nil {
		out.Edges = make([]RawEdge, len(r.Edges))
		for i, e := range r.Edges {
			e.Width = cloneFloat(e.Width)
			out.Edges[i] = e
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v. Handy for building raw snapshots in code.
func Float(v float64) *float64 { return &v }

// =============================================================================
// Snapshot - Normalized Records
// =============================================================================

// Snapshot is a validated, privately owned copy of a raw snapshot.
type Snapshot struct {
	Nodes []*Node
	Edges []*Edge

	byID map[string]*Node
}

// Node returns the node with the given id.
func (s *Snapshot) Node(id string) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// NodeCount returns the number of nodes.
func (s *Snapshot) NodeCount() int { return len(s.Nodes) }

// EdgeCount returns the number of edges.
func (s *Snapshot) EdgeCount() int { return len(s.Edges) }

// Raw converts the snapshot back to wire form. Positions assigned by the
// layout engine are included as x/y.
func (s *Snapshot) Raw() RawSnapshot {
	out := RawSnapshot{
		Nodes: make([]RawNode, len(s.Nodes)),
		Edges: make([]RawEdge, len(s.Edges)),
	}
	for i, n := range s.Nodes {
		rn := RawNode{ID: ID(n.ID), Size: Float(n.Size), Color: n.Color, Tooltip: n.Tooltip}
		if n.positioned {
			rn.X, rn.Y = Float(n.X), Float(n.Y)
		}
		out.Nodes[i] = rn
	}
	for i, e := range s.Edges {
		out.Edges[i] = RawEdge{
			Source: ID(e.Source.ID),
			Target: ID(e.Target.ID),
			Width:  Float(e.Width),
			Color:  e.Color,
		}
	}
	return out
}

// Node is a normalized node record. X and Y are written by the layout engine.
type Node struct {
	ID      string
	Index   int
	Size    float64
	Color   string
	Tooltip string
	X, Y    float64

	positioned bool
}

// Positioned reports whether X and Y hold a position.
func (n *Node) Positioned() bool { return n.positioned }

// SetPosition assigns the node's coordinates.
func (n *Node) SetPosition(x, y float64) {
	n.X, n.Y = x, y
	n.positioned = true
}

// Edge is a normalized edge whose endpoints point at nodes of the same
// snapshot. Key is the edge's identity for scene reconciliation.
type Edge struct {
	Key    string
	Index  int
	Source *Node
	Target *Node
	Width  float64
	Color  string
}

// EdgeKey builds the identity key of the n-th (zero based) edge between
// source and target, in the given direction. Plain ids give keys like
// "a->b" and "a->b#1". Backslash, '>' and '#' inside an id are escaped with
// a backslash, so distinct (source, target, occurrence) triples never share
// a key.
func EdgeKey(source, target string, occurrence int) string {
	key := escapeKeyPart(source) + "->" + escapeKeyPart(target)
	if occurrence > 0 {
		key += "#" + strconv.Itoa(occurrence)
	}
	return key
}

var keyPartEscaper = strings.NewReplacer(`\`, `\\`, ">", `\>`, "#", `\#`)

func escapeKeyPart(id string) string {
	if !strings.ContainsAny(id, `\>#`) {
		return id
	}
	return keyPartEscaper.Replace(id)
}
