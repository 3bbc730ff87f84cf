package graph

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	errs "github.com/matzehuels/forcegraph/pkg/errors"
)

func rawNode(id string, size float64, color string) RawNode {
	return RawNode{ID: ID(id), Size: Float(size), Color: color}
}

func rawEdge(src, dst string) RawEdge {
	return RawEdge{Source: ID(src), Target: ID(dst)}
}

func TestNormalize(t *testing.T) {
	raw := RawSnapshot{
		Nodes: []RawNode{rawNode("a", 5, "red"), rawNode("b", 3, "#00f")},
		Edges: []RawEdge{{Source: "a", Target: "b", Width: Float(2), Color: "#999"}},
	}

	snap, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if snap.NodeCount() != 2 || snap.EdgeCount() != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", snap.NodeCount(), snap.EdgeCount())
	}

	a, _ := snap.Node("a")
	b, _ := snap.Node("b")
	e := snap.Edges[0]
	if e.Source != a || e.Target != b {
		t.Error("edge endpoints should reference snapshot nodes directly")
	}
	if e.Width != 2 || e.Color != "#999" {
		t.Errorf("edge attrs = %v/%q, want 2/#999", e.Width, e.Color)
	}
	if e.Key != "a->b" {
		t.Errorf("edge key = %q, want a->b", e.Key)
	}
	if a.Positioned() {
		t.Error("node should not be positioned before layout")
	}

	a.SetPosition(10, 20)
	if e.Source.X != 10 || e.Source.Y != 20 {
		t.Error("position written to a node should be visible through the edge")
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := RawSnapshot{
		Nodes: []RawNode{rawNode("a", 5, "red"), rawNode("b", 3, "blue")},
		Edges: []RawEdge{rawEdge("a", "b")},
	}
	before := raw.Clone()

	snap, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for _, n := range snap.Nodes {
		n.SetPosition(1, 1)
		n.Size = 99
	}
	snap.Edges[0].Width = 42

	if !reflect.DeepEqual(raw, before) {
		t.Errorf("raw snapshot mutated:\n got  %+v\n want %+v", raw, before)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := RawSnapshot{
		Nodes: []RawNode{rawNode("a", 1, "red")},
		Edges: []RawEdge{rawEdge("a", "a")},
	}
	snap, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if snap.Edges[0].Width != DefaultEdgeWidth {
		t.Errorf("default width = %v, want %v", snap.Edges[0].Width, DefaultEdgeWidth)
	}
}

func TestNormalizeSeedPosition(t *testing.T) {
	n := rawNode("a", 1, "red")
	n.X, n.Y = Float(3), Float(4)
	snap, err := Normalize(RawSnapshot{Nodes: []RawNode{n, rawNode("b", 1, "red")}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !snap.Nodes[0].Positioned() || snap.Nodes[0].X != 3 || snap.Nodes[0].Y != 4 {
		t.Errorf("seeded node = %+v, want positioned at (3,4)", snap.Nodes[0])
	}
	if snap.Nodes[1].Positioned() {
		t.Error("unseeded node should not be positioned")
	}
}

func TestNormalizeRepeatedEdgeKeys(t *testing.T) {
	raw := RawSnapshot{
		Nodes: []RawNode{rawNode("a", 1, "red"), rawNode("b", 1, "red")},
		Edges: []RawEdge{rawEdge("a", "b"), rawEdge("b", "a"), rawEdge("a", "b")},
	}
	snap, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{"a->b", "b->a", "a->b#1"}
	for i, e := range snap.Edges {
		if e.Key != want[i] {
			t.Errorf("edge %d key = %q, want %q", i, e.Key, want[i])
		}
	}
}

func TestNormalizeEdgeKeysWithSeparatorsInIDs(t *testing.T) {
	raw := RawSnapshot{
		Nodes: []RawNode{
			rawNode("a", 1, "red"), rawNode("b", 1, "red"), rawNode("b#1", 1, "red"),
			rawNode("a->b", 1, "red"), rawNode(`x\`, 1, "red"),
		},
		Edges: []RawEdge{
			rawEdge("a", "b#1"), rawEdge("a", "b"), rawEdge("a", "b"),
			rawEdge("a->b", "a"), rawEdge(`x\`, "b"),
		},
	}
	snap, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{`a->b\#1`, "a->b", "a->b#1", `a-\>b->a`, `x\\->b`}
	for i, e := range snap.Edges {
		if e.Key != want[i] {
			t.Errorf("edge %d key = %q, want %q", i, e.Key, want[i])
		}
	}
}

func TestEdgeKeyUnique(t *testing.T) {
	ids := []string{"a", "b", "a-", "-b", "b#1", "#1", "a->b", "b->", ">", "#", `\`, `x\`, `\#`, `\>`, ""}
	seen := make(map[string][3]any)
	for _, src := range ids {
		for _, dst := range ids {
			for n := range 3 {
				key := EdgeKey(src, dst, n)
				if prev, dup := seen[key]; dup {
					t.Fatalf("EdgeKey(%q, %q, %d) = %q, same as EdgeKey(%q, %q, %d)",
						src, dst, n, key, prev[0], prev[1], prev[2])
				}
				seen[key] = [3]any{src, dst, n}
			}
		}
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawSnapshot
		reason string
	}{
		{
			name: "dangling target",
			raw: RawSnapshot{
				Nodes: []RawNode{rawNode("1", 1, "red")},
				Edges: []RawEdge{rawEdge("1", "9")},
			},
			reason: `target "9" not found`,
		},
		{
			name: "dangling source",
			raw: RawSnapshot{
				Nodes: []RawNode{rawNode("1", 1, "red")},
				Edges: []RawEdge{rawEdge("0", "1")},
			},
			reason: `source "0" not found`,
		},
		{
			name:   "missing id",
			raw:    RawSnapshot{Nodes: []RawNode{{Size: Float(1), Color: "red"}}},
			reason: "missing id",
		},
		{
			name:   "missing size",
			raw:    RawSnapshot{Nodes: []RawNode{{ID: "a", Color: "red"}}},
			reason: "missing size",
		},
		{
			name:   "missing color",
			raw:    RawSnapshot{Nodes: []RawNode{{ID: "a", Size: Float(1)}}},
			reason: "missing color",
		},
		{
			name:   "zero size",
			raw:    RawSnapshot{Nodes: []RawNode{rawNode("a", 0, "red")}},
			reason: "size must be a positive number",
		},
		{
			name:   "duplicate id",
			raw:    RawSnapshot{Nodes: []RawNode{rawNode("a", 1, "red"), rawNode("a", 2, "blue")}},
			reason: "duplicate id",
		},
		{
			name: "negative width",
			raw: RawSnapshot{
				Nodes: []RawNode{rawNode("a", 1, "red")},
				Edges: []RawEdge{{Source: "a", Target: "a", Width: Float(-1)}},
			},
			reason: "width must be a non-negative number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Normalize(tt.raw)
			if err == nil {
				t.Fatalf("Normalize() = %v, want error", snap)
			}
			var malformed *MalformedSnapshotError
			if !errors.As(err, &malformed) {
				t.Fatalf("error %T is not *MalformedSnapshotError", err)
			}
			if !strings.Contains(malformed.Reason, tt.reason) {
				t.Errorf("reason = %q, want it to contain %q", malformed.Reason, tt.reason)
			}
			if !errs.Is(err, errs.ErrCodeMalformedSnapshot) {
				t.Errorf("error code = %q, want %q", errs.GetCode(err), errs.ErrCodeMalformedSnapshot)
			}
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	snap, err := Normalize(RawSnapshot{})
	if err != nil {
		t.Fatalf("Normalize(empty): %v", err)
	}
	if snap.NodeCount() != 0 || snap.EdgeCount() != 0 {
		t.Error("empty snapshot should normalize to empty")
	}
}

func TestReadSnapshotMixedIDs(t *testing.T) {
	data := `{
		"nodes": [
			{"id": 1, "size": 4, "color": "red", "tooltip": "<b>one</b>"},
			{"id": "2", "size": 4.5, "color": "blue"}
		],
		"edges": [{"source": 1, "target": 2}]
	}`
	raw, err := ReadSnapshot(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if raw.Nodes[0].ID != "1" || raw.Edges[0].Target != "2" {
		t.Errorf("ids = %q/%q, want 1/2", raw.Nodes[0].ID, raw.Edges[0].Target)
	}
	if _, err := Normalize(raw); err != nil {
		t.Errorf("numeric and string ids should resolve: %v", err)
	}
}

func TestReadSnapshotRejectsObjectID(t *testing.T) {
	_, err := ReadSnapshot(strings.NewReader(`{"nodes":[{"id":{"x":1},"size":1,"color":"red"}]}`))
	if err == nil {
		t.Error("object id should fail to decode")
	}
}

func TestReadSnapshotFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "snap.yaml")
	yamlData := `nodes:
  - id: 1
    size: 3
    color: green
  - id: b
    size: 2
    color: "#123456"
edges:
  - source: 1
    target: b
    width: 1.5
`
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}
	raw, err := ReadSnapshotFile(yamlPath)
	if err != nil {
		t.Fatalf("ReadSnapshotFile(yaml): %v", err)
	}
	if len(raw.Nodes) != 2 || raw.Nodes[0].ID != "1" || *raw.Edges[0].Width != 1.5 {
		t.Errorf("unexpected yaml snapshot: %+v", raw)
	}

	jsonPath := filepath.Join(dir, "snap.json")
	if err := WriteSnapshotFile(raw, jsonPath); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}
	again, err := ReadSnapshotFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadSnapshotFile(json): %v", err)
	}
	if !reflect.DeepEqual(raw, again) {
		t.Errorf("json round trip differs:\n got  %+v\n want %+v", again, raw)
	}

	if _, err := ReadSnapshotFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should error")
	}
}

func TestMarshalSnapshotStable(t *testing.T) {
	raw := RawSnapshot{Nodes: []RawNode{rawNode("a", 1, "red")}}
	a, err := MarshalSnapshot(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := MarshalSnapshot(raw.Clone())
	if !bytes.Equal(a, b) {
		t.Error("equal snapshots should marshal identically")
	}
}

func TestSnapshotRawIncludesPositions(t *testing.T) {
	snap, _ := Normalize(RawSnapshot{Nodes: []RawNode{rawNode("a", 1, "red"), rawNode("b", 1, "red")}})
	snap.Nodes[0].SetPosition(1, 2)

	raw := snap.Raw()
	if raw.Nodes[0].X == nil || *raw.Nodes[0].X != 1 || *raw.Nodes[0].Y != 2 {
		t.Error("positioned node should carry x/y")
	}
	if raw.Nodes[1].X != nil {
		t.Error("unpositioned node should omit x/y")
	}
}

func TestLayoutApplyAndMarshal(t *testing.T) {
	snap, _ := Normalize(RawSnapshot{Nodes: []RawNode{rawNode("a", 1, "red"), rawNode("b", 1, "red")}})
	l := Layout{
		Iterations: 300,
		Nodes:      []Position{{ID: "a", X: 1, Y: 2}, {ID: "zz", X: 5, Y: 5}},
		Bounds:     Bounds{MinX: 1, MinY: 2, MaxX: 1, MaxY: 2},
	}

	if got := snap.ApplyLayout(l); got != 1 {
		t.Errorf("ApplyLayout() = %d, want 1", got)
	}
	if got := snap.Positions(); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Positions() = %+v, want only a", got)
	}

	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l, back) {
		t.Errorf("layout round trip differs: %+v vs %+v", back, l)
	}
}

func TestHash(t *testing.T) {
	a := RawSnapshot{Nodes: []RawNode{rawNode("a", 1, "red")}}
	b := a.Clone()

	ha, err := Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := Hash(b)
	if ha != hb {
		t.Error("equal snapshots should hash equally")
	}

	b.Nodes[0].Color = "blue"
	if hc, _ := Hash(b); hc == ha {
		t.Error("changed snapshot should hash differently")
	}

	yamlSrc := "nodes:\n  - id: a\n    size: 1\n    color: red\n"
	fromYAML, err := ReadSnapshotYAML(strings.NewReader(yamlSrc))
	if err != nil {
		t.Fatal(err)
	}
	if hy, _ := Hash(fromYAML); hy != ha {
		t.Error("YAML and in-memory snapshots with equal content should hash equally")
	}
}
