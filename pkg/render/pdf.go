package render

import "github.com/matzehuels/forcegraph/pkg/scene"

// RenderPDF renders the scene as PDF via SVG conversion. Tooltips are left
// out since PDF has no hover.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(s *scene.Scene, opts ...SVGOption) ([]byte, error) {
	svg := RenderSVG(s, append([]SVGOption{WithoutTooltips()}, opts...)...)
	return ToPDF(svg)
}
