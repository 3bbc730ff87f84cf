package render

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// testScene builds a scene with two pinned nodes joined by one colored edge
// and one uncolored edge.
func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	raw := graph.RawSnapshot{
		Nodes: []graph.RawNode{
			{ID: "a", Size: graph.Float(10), Color: "red", Tooltip: "<b>A</b>", X: graph.Float(50), Y: graph.Float(50)},
			{ID: "b", Size: graph.Float(5), Color: "#0000ff", X: graph.Float(150), Y: graph.Float(100)},
		},
		Edges: []graph.RawEdge{
			{Source: "a", Target: "b", Width: graph.Float(2), Color: "#999"},
			{Source: "b", Target: "a"},
		},
	}
	snap, err := graph.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	sc, err := scene.New(200, 150, "")
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	if _, err := scene.Reconcile(sc, snap, scene.ModeFreeze); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return sc
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testScene(t)))

	for _, want := range []string{
		`viewBox="0.00 0.00 200.00 150.00"`,
		`width="200" height="150"`,
		`style="border:1px dotted"`,
		`data-generation="0"`,
		`<circle data-key="a" cx="50.00" cy="50.00" r="10.00" fill="red" data-tooltip="&lt;b&gt;A&lt;/b&gt;"/>`,
		`<line data-key="a-&gt;b" x1="50.00" y1="50.00" x2="150.00" y2="100.00" stroke-width="2.00" stroke="#999"/>`,
		`id="tooltip"`,
		"fade(0.9, 200)",
		"fade(0, 500)",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("RenderSVG() missing %q", want)
		}
	}

	// Edges come before nodes so circles are drawn on top.
	if strings.Index(svg, "<line") > strings.Index(svg, "<circle") {
		t.Error("edges must be drawn before nodes")
	}
}

func TestRenderSVG_UncoloredEdgeHasNoStroke(t *testing.T) {
	svg := string(RenderSVG(testScene(t)))
	for _, line := range strings.Split(svg, "\n") {
		if strings.Contains(line, `data-key="b-&gt;a"`) && strings.Contains(line, "stroke=") {
			t.Errorf("uncolored edge should not carry a stroke: %s", line)
		}
	}
}

func TestRenderSVG_Options(t *testing.T) {
	sc := testScene(t)

	svg := string(RenderSVG(sc, WithoutTooltips()))
	if strings.Contains(svg, "data-tooltip") || strings.Contains(svg, "<script") {
		t.Error("WithoutTooltips() should drop tooltip markup and script")
	}

	svg = string(RenderSVG(sc, WithFit(5)))
	// Content spans x 40..155 and y 40..105 once radii are included.
	if !strings.Contains(svg, `viewBox="35.00 35.00 125.00 75.00"`) {
		t.Errorf("WithFit() viewBox wrong: %s", svg[:strings.Index(svg, ">")])
	}
}

func TestRenderSVG_Background(t *testing.T) {
	sc, err := scene.New(100, 100, "https://example.com/bg.png")
	if err != nil {
		t.Fatal(err)
	}
	svg := string(RenderSVG(sc))
	if !strings.Contains(svg, "background-image: url(&#39;https://example.com/bg.png&#39;)") {
		t.Errorf("background missing: %s", svg[:strings.Index(svg, ">")])
	}
}

func TestRenderSVG_Empty(t *testing.T) {
	sc, err := scene.New(100, 100, "")
	if err != nil {
		t.Fatal(err)
	}
	svg := string(RenderSVG(sc, WithFit(10)))
	if !strings.Contains(svg, `viewBox="0.00 0.00 100.00 100.00"`) {
		t.Error("empty scene should fall back to the canvas viewBox")
	}
	if strings.Contains(svg, "<circle") || strings.Contains(svg, "<line") {
		t.Error("empty scene should draw nothing")
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(testScene(t), WithBackgroundColor("white"))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Fatalf("size = %dx%d, want 200x150", b.Dx(), b.Dy())
	}

	r, g, b, _ := img.At(50, 50).RGBA()
	if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
		t.Errorf("node a center = (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(5, 140).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("background = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
}

func TestRenderPNG_Scale(t *testing.T) {
	data, err := RenderPNG(testScene(t), WithScale(2))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("size = %dx%d, want 400x300", cfg.Width, cfg.Height)
	}
}

func TestRenderPNG_BackgroundImage(t *testing.T) {
	bg := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			bg.Set(x, y, color.NRGBA{G: 255, A: 255})
		}
	}
	data, err := RenderPNG(testScene(t), WithBackgroundImage(bg))
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(100, 130).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("background pixel = (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
}

func TestRenderPNG_BadColor(t *testing.T) {
	raw := graph.RawSnapshot{Nodes: []graph.RawNode{
		{ID: "a", Size: graph.Float(3), Color: "not-a-color", X: graph.Float(1), Y: graph.Float(1)},
	}}
	snap, err := graph.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	sc, _ := scene.New(10, 10, "")
	if _, err := scene.Reconcile(sc, snap, scene.ModeFreeze); err != nil {
		t.Fatal(err)
	}
	if _, err := RenderPNG(sc); err == nil {
		t.Error("expected error for unknown color")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "red", want: color.NRGBA{R: 255, A: 255}},
		{in: "#00f", want: color.NRGBA{B: 255, A: 255}},
		{in: "#00ff00", want: color.NRGBA{G: 255, A: 255}},
		{in: "rgb(10, 20, 30)", want: color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{in: "rgba(10,20,30,0)", want: color.NRGBA{R: 10, G: 20, B: 30}},
		{in: "  SteelBlue ", want: color.NRGBA{R: 70, G: 130, B: 180, A: 255}},
		{in: "", wantErr: true},
		{in: "#zzz", wantErr: true},
		{in: "rgb(1,2)", wantErr: true},
		{in: "chartreuse-ish", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) = %v, want error", tt.in, c)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			got := color.NRGBAModel.Convert(c).(color.NRGBA)
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(testScene(t))
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	var got SceneJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Canvas.Width != 200 || got.Canvas.Height != 150 {
		t.Errorf("canvas = %+v", got.Canvas)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 2 {
		t.Fatalf("counts = %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
	if got.Edges[0].Source != "a" || got.Edges[0].Target != "b" {
		t.Errorf("edge endpoints = %s -> %s", got.Edges[0].Source, got.Edges[0].Target)
	}
}
