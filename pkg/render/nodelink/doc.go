// Package nodelink exports a rendered scene as a Graphviz graph.
//
// # Overview
//
// The force layout already decided where every node goes. [ToDOT] writes
// those positions as pinned pos attributes so Graphviz's neato engine keeps
// them, which makes the DOT output a faithful copy of the scene that
// external Graphviz tooling can post-process.
//
// # Usage
//
//	dot := nodelink.ToDOT(sc, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; the pipeline exposes it as the "neato" export format.
package nodelink
