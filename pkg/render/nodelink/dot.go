package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

// pointsPerInch converts scene units to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Labels shows node keys inside the circles. When false, nodes are drawn
	// as unlabeled points like the SVG sink.
	Labels bool
}

// ToDOT converts the scene's current group to Graphviz DOT. Every node is
// pinned at its laid-out position, so neato reproduces the force layout
// instead of computing its own. Scene y grows downward; DOT y grows upward.
func ToDOT(s *scene.Scene, opts Options) string {
	g := s.Root()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(nodeAttrs(n, opts.Labels), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n scene.NodeVisual, labels bool) []string {
	d := 2 * n.R / pointsPerInch
	attrs := []string{
		fmt.Sprintf("pos=\"%.4f,%.4f!\"", n.CX/pointsPerInch, -n.CY/pointsPerInch),
		fmt.Sprintf("width=%.4f", d),
		fmt.Sprintf("height=%.4f", d),
		fmt.Sprintf("fillcolor=%q", n.Fill),
		"color=\"none\"",
	}
	if labels {
		attrs = append(attrs, fmt.Sprintf("label=%q", n.Key))
	} else {
		attrs = append(attrs, "label=\"\"")
	}
	if n.Tooltip != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Tooltip))
	}
	return attrs
}

func edgeAttrs(e scene.EdgeVisual) []string {
	attrs := []string{fmt.Sprintf("penwidth=%.2f", e.StrokeWidth)}
	if e.Stroke == "" {
		attrs = append(attrs, "style=invis")
	} else {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Stroke))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine, which
// honors the pinned node positions produced by [ToDOT].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
