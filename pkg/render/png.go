package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale      float64
	background image.Image
	fill       string
	fit        bool
	padding    float64
}

// WithScale sets the PNG scale factor (default 1).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithBackgroundImage draws img stretched over the canvas before any
// visual. Hosts fetch the canvas background reference and pass it here.
func WithBackgroundImage(img image.Image) PNGOption {
	return func(r *pngRenderer) { r.background = img }
}

// WithBackgroundColor fills the canvas with a CSS color. Default is
// transparent.
func WithBackgroundColor(c string) PNGOption {
	return func(r *pngRenderer) { r.fill = c }
}

// WithPNGFit frames the drawn content plus padding instead of the canvas
// rectangle. The output keeps the canvas size.
func WithPNGFit(padding float64) PNGOption {
	return func(r *pngRenderer) {
		r.fit = true
		r.padding = padding
	}
}

// RenderPNG rasterizes the scene's current group. Edges without a stroke
// color are not drawn, matching SVG where a line without stroke is
// invisible. Unknown colors are reported as errors.
func RenderPNG(s *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}

	c := s.Canvas()
	w, h := int(float64(c.Width)*r.scale), int(float64(c.Height)*r.scale)
	dc := gg.NewContext(w, h)

	if r.fill != "" {
		col, err := ParseColor(r.fill)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		dc.SetColor(col)
		dc.Clear()
	}
	if r.background != nil {
		b := r.background.Bounds()
		dc.Push()
		dc.Scale(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
		dc.DrawImage(r.background, -b.Min.X, -b.Min.Y)
		dc.Pop()
	}

	dc.Scale(r.scale, r.scale)
	g := s.Root()
	if r.fit {
		if b, ok := contentBounds(g); ok {
			bw, bh := b.maxX-b.minX+2*r.padding, b.maxY-b.minY+2*r.padding
			k := min(float64(c.Width)/bw, float64(c.Height)/bh)
			dc.Scale(k, k)
			dc.Translate(-b.minX+r.padding, -b.minY+r.padding)
		}
	}

	for _, e := range g.Edges() {
		if e.Stroke == "" || e.StrokeWidth == 0 {
			continue
		}
		col, err := ParseColor(e.Stroke)
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", e.Key, err)
		}
		dc.SetColor(col)
		dc.SetLineWidth(e.StrokeWidth)
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range g.Nodes() {
		col, err := ParseColor(n.Fill)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Key, err)
		}
		dc.SetColor(col)
		dc.DrawCircle(n.CX, n.CY, n.R)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
