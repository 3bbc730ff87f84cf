// Package render exports a scene to files.
//
// # Overview
//
// The sinks in this package read a [scene.Scene] and never modify it:
//
//   - [RenderSVG]: the canvas as standalone SVG, edges below nodes, with an
//     embedded script that reproduces the hover tooltip
//   - [RenderPNG]: a raster of the same picture drawn with gg
//   - [RenderPDF]: the SVG converted by rsvg-convert
//   - [RenderJSON]: the scene model itself, for debugging and tests
//
// The [nodelink] subpackage adds a Graphviz DOT sink with node positions
// pinned to the scene's coordinates.
//
// # Coordinates
//
// Visuals are drawn at their scene coordinates, which are the raw layout
// output. Parts of a graph at negative coordinates fall outside the canvas,
// as they do on screen. [WithFit] sets the SVG viewBox to the drawn content
// instead; [WithPNGFit] does the same for PNG.
//
// # Format Conversion
//
// [ToPDF] converts any SVG using the external rsvg-convert tool (from
// librsvg).
//
//	svg := render.RenderSVG(s)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/forcegraph/pkg/render/nodelink
package render
