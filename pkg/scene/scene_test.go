package scene

import (
	"math"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

type pnode struct {
	id   string
	x, y float64
}

// placed builds a snapshot whose nodes are already positioned.
func placed(t *testing.T, nodes []pnode, edges [][2]string) *graph.Snapshot {
	t.Helper()
	var raw graph.RawSnapshot
	for _, n := range nodes {
		raw.Nodes = append(raw.Nodes, graph.RawNode{
			ID:      graph.ID(n.id),
			Size:    graph.Float(4),
			Color:   "color-" + n.id,
			Tooltip: "tip " + n.id,
			X:       graph.Float(n.x),
			Y:       graph.Float(n.y),
		})
	}
	for _, e := range edges {
		raw.Edges = append(raw.Edges, graph.RawEdge{Source: graph.ID(e[0]), Target: graph.ID(e[1])})
	}
	snap, err := graph.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return snap
}

func newScene(t *testing.T) *Scene {
	t.Helper()
	s, err := New(800, 600, "")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func nodeKeys(g *Group) []string {
	var keys []string
	for _, n := range g.Nodes() {
		keys = append(keys, n.Key)
	}
	return keys
}

func edgeKeys(g *Group) []string {
	var keys []string
	for _, e := range g.Edges() {
		keys = append(keys, e.Key)
	}
	return keys
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	s, err := New(640, 480, "https://example.com/bg.png")
	if err != nil {
		t.Fatal(err)
	}
	c := s.Canvas()
	if c.Width != 640 || c.Height != 480 || c.Zoom {
		t.Errorf("Canvas() = %+v", c)
	}
	if !s.Root().Empty() {
		t.Error("new scene should have an empty group")
	}

	if _, err := New(0, 10, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(0,10) error = %v, want INVALID_INPUT", err)
	}
	if _, err := New(10, 10, `x" onload="y`); err == nil {
		t.Error("New() should reject unsafe background")
	}
}

func TestReconcileEnter(t *testing.T) {
	s := newScene(t)
	snap := placed(t,
		[]pnode{{"1", 10, 20}, {"2", 30, 40}},
		[][2]string{{"1", "2"}})

	diff, err := Reconcile(s, snap, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Nodes.Entered != 2 || diff.Edges.Entered != 1 {
		t.Errorf("diff = %+v", diff)
	}

	n, ok := s.Root().Node("1")
	if !ok {
		t.Fatal("node 1 not drawn")
	}
	want := NodeVisual{Key: "1", CX: 10, CY: 20, R: 4, Fill: "color-1", Tooltip: "tip 1"}
	if n != want {
		t.Errorf("node visual = %+v, want %+v", n, want)
	}

	e, ok := s.Root().Edge("1->2")
	if !ok {
		t.Fatal("edge not drawn")
	}
	if e.X1 != 10 || e.Y1 != 20 || e.X2 != 30 || e.Y2 != 40 || e.StrokeWidth != graph.DefaultEdgeWidth {
		t.Errorf("edge visual = %+v", e)
	}
}

func TestReconcileJoinFreeze(t *testing.T) {
	s := newScene(t)
	a := placed(t,
		[]pnode{{"1", 0, 0}, {"2", 10, 0}, {"3", 20, 0}},
		[][2]string{{"1", "2"}, {"2", "3"}})
	b := placed(t,
		[]pnode{{"2", 99, 99}, {"3", 20, 0}, {"4", 30, 0}},
		[][2]string{{"2", "3"}, {"3", "4"}})

	if _, err := Reconcile(s, a, ModeFreeze); err != nil {
		t.Fatal(err)
	}
	diff, err := Reconcile(s, b, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}

	wantDiff := Diff{
		Edges: JoinCount{Entered: 1, Updated: 1, Exited: 1},
		Nodes: JoinCount{Entered: 1, Updated: 2, Exited: 1},
	}
	if diff != wantDiff {
		t.Errorf("diff = %+v, want %+v", diff, wantDiff)
	}

	if got := nodeKeys(s.Root()); !equal(got, []string{"2", "3", "4"}) {
		t.Errorf("node layer = %v", got)
	}
	if got := edgeKeys(s.Root()); !equal(got, []string{"2->3", "3->4"}) {
		t.Errorf("edge layer = %v", got)
	}

	n2, _ := s.Root().Node("2")
	if n2.CX != 10 || n2.CY != 0 {
		t.Errorf("frozen node 2 at (%v,%v), want first drawn (10,0)", n2.CX, n2.CY)
	}
}

func TestReconcileJoinRefresh(t *testing.T) {
	s := newScene(t)
	a := placed(t, []pnode{{"1", 0, 0}, {"2", 10, 0}}, [][2]string{{"1", "2"}})
	b := placed(t, []pnode{{"1", 5, 5}, {"2", 50, 60}}, [][2]string{{"1", "2"}})

	if _, err := Reconcile(s, a, ModeRefresh); err != nil {
		t.Fatal(err)
	}
	if _, err := Reconcile(s, b, ModeRefresh); err != nil {
		t.Fatal(err)
	}

	n2, _ := s.Root().Node("2")
	if n2.CX != 50 || n2.CY != 60 {
		t.Errorf("refreshed node 2 at (%v,%v), want (50,60)", n2.CX, n2.CY)
	}
	e, _ := s.Root().Edge("1->2")
	if e.X1 != 5 || e.X2 != 50 {
		t.Errorf("refreshed edge = %+v", e)
	}
}

func TestReconcileSameSnapshotTwice(t *testing.T) {
	s := newScene(t)
	snap := placed(t, []pnode{{"1", 0, 0}, {"2", 1, 1}}, [][2]string{{"1", "2"}, {"1", "2"}})

	if _, err := Reconcile(s, snap, ModeFreeze); err != nil {
		t.Fatal(err)
	}
	before := s.Root().Nodes()

	diff, err := Reconcile(s, snap, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Nodes.Entered != 0 || diff.Nodes.Exited != 0 || diff.Edges.Entered != 0 {
		t.Errorf("second pass diff = %+v, want only updates", diff)
	}
	if got := edgeKeys(s.Root()); !equal(got, []string{"1->2", "1->2#1"}) {
		t.Errorf("edge layer = %v", got)
	}
	after := s.Root().Nodes()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("node %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestReconcileEdgeIDsWithSeparators(t *testing.T) {
	s := newScene(t)
	nodes := []pnode{{"a", 0, 0}, {"b", 10, 0}, {"b#1", 0, 10}}

	first := placed(t, nodes, [][2]string{{"a", "b#1"}, {"a", "b"}, {"a", "b"}})
	diff, err := Reconcile(s, first, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Edges.Entered != 3 || s.Root().EdgeCount() != 3 {
		t.Fatalf("entered %d edges, drawn %d, want 3", diff.Edges.Entered, s.Root().EdgeCount())
	}
	if got := edgeKeys(s.Root()); !equal(got, []string{`a->b\#1`, "a->b", "a->b#1"}) {
		t.Errorf("edge keys = %q", got)
	}

	second := placed(t, nodes, [][2]string{{"a", "b"}, {"a", "b"}})
	diff, err = Reconcile(s, second, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Edges != (JoinCount{Updated: 2, Exited: 1}) {
		t.Errorf("edge diff = %+v", diff.Edges)
	}
	for _, e := range s.Root().Edges() {
		if e.Target == "b#1" {
			t.Errorf("edge to b#1 still drawn: %+v", e)
		}
	}
	if s.Root().EdgeCount() != 2 {
		t.Errorf("edges drawn = %d, want 2", s.Root().EdgeCount())
	}
}

func TestJoinLayerOneVisualPerKey(t *testing.T) {
	type rec struct{ key, val string }
	type vis struct{ key, val string }
	build := func(r rec) *vis { return &vis{key: r.key, val: r.val} }

	var count JoinCount
	next, byKey := joinLayer(
		[]*vis{{"x", "old"}, {"x", "stale"}},
		[]rec{{"x", "new"}, {"y", "first"}, {"y", "second"}},
		func(r rec) string { return r.key },
		build,
		func(v *vis) string { return v.key },
		ModeRefresh,
		&count,
	)

	if len(next) != 2 || len(byKey) != 2 {
		t.Fatalf("next layer has %d visuals and %d keys, want 2 and 2", len(next), len(byKey))
	}
	if byKey["x"].val != "new" || byKey["y"].val != "first" {
		t.Errorf("x = %q, y = %q", byKey["x"].val, byKey["y"].val)
	}
	if count != (JoinCount{Entered: 1, Updated: 1, Exited: 1}) {
		t.Errorf("count = %+v", count)
	}
}

func TestReconcileEmpty(t *testing.T) {
	s := newScene(t)
	if _, err := Reconcile(s, placed(t, []pnode{{"1", 0, 0}}, nil), ModeFreeze); err != nil {
		t.Fatal(err)
	}

	diff, err := Reconcile(s, placed(t, nil, nil), ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Nodes.Exited != 1 || !s.Root().Empty() {
		t.Errorf("empty snapshot should clear the group, diff = %+v", diff)
	}
}

func TestReconcileFailureKeepsLastGood(t *testing.T) {
	s := newScene(t)
	good := placed(t, []pnode{{"1", 0, 0}}, nil)
	if _, err := Reconcile(s, good, ModeFreeze); err != nil {
		t.Fatal(err)
	}

	bad, err := graph.Normalize(graph.RawSnapshot{Nodes: []graph.RawNode{
		{ID: "9", Size: graph.Float(1), Color: "red"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Reconcile(s, bad, ModeFreeze); !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Fatalf("Reconcile(unpositioned) error = %v, want LAYOUT_FAILED", err)
	}

	bad.Nodes[0].SetPosition(math.NaN(), 0)
	if _, err := Reconcile(s, bad, ModeFreeze); !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Fatalf("Reconcile(NaN) error = %v, want LAYOUT_FAILED", err)
	}

	if got := nodeKeys(s.Root()); !equal(got, []string{"1"}) {
		t.Errorf("group after failure = %v, want [1]", got)
	}
}

func TestResetGroup(t *testing.T) {
	s := newScene(t)
	snap := placed(t, []pnode{{"1", 0, 0}, {"2", 3, 4}}, [][2]string{{"1", "2"}})
	if _, err := Reconcile(s, snap, ModeFreeze); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerEnter("1", 5, 5); err != nil {
		t.Fatal(err)
	}

	old := s.Root()
	s.ResetGroup()

	if !s.Root().Empty() {
		t.Error("group should be empty after reset")
	}
	if s.Root().Generation != old.Generation+1 {
		t.Errorf("generation = %d, want %d", s.Root().Generation, old.Generation+1)
	}
	if old.NodeCount() != 2 {
		t.Error("reset must not mutate the discarded group")
	}
	if s.Tooltip().Node != "1" {
		t.Error("reset keeps the tooltip")
	}

	diff, err := Reconcile(s, snap, ModeFreeze)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Nodes.Entered != 2 {
		t.Errorf("replay after reset should re-enter everything, diff = %+v", diff)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeFreeze, false},
		{"freeze", ModeFreeze, false},
		{"refresh", ModeRefresh, false},
		{"merge", ModeFreeze, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
	if ModeRefresh.String() != "refresh" {
		t.Errorf("ModeRefresh.String() = %q", ModeRefresh.String())
	}
}

func TestString(t *testing.T) {
	s := newScene(t)
	if got, want := s.String(), "800x600 canvas, group 0: 0 edges, 0 nodes"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
