// Package pkg provides the libraries behind forcegraph, a renderer for
// network graph snapshots.
//
// # Overview
//
// A simulation delivers snapshots of a network: nodes with a size, color
// and tooltip, and edges between them. forcegraph lays each snapshot out
// with a deterministic force simulation and draws it into a scene that
// keeps node identity across updates. The pkg directory is organized as:
//
//  1. [graph] - Snapshot wire format and normalization
//  2. [layout] - Fixed-iteration force layout
//  3. [scene] - Visual state, reconciliation and tooltips
//  4. [renderer] - Deferred rendering through a [schedule] executor
//  5. [render] - SVG, PNG, PDF and JSON exporters ([render/nodelink] for DOT)
//  6. [pipeline] - Orchestration (load → render → export) with caching
//
// # Architecture
//
// The data flow through forcegraph:
//
//	RawSnapshot (JSON/YAML, HTTP, WebSocket)
//	         ↓
//	    [graph] package (normalize, reject malformed input)
//	         ↓
//	    [renderer] package (schedule a render task)
//	         ↓
//	    [layout] + [scene] packages (simulate, reconcile visuals)
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/forcegraph/pkg/render"
//	    "github.com/matzehuels/forcegraph/pkg/renderer"
//	    "github.com/matzehuels/forcegraph/pkg/schedule"
//	)
//
//	exec := schedule.NewExecutor()
//	r, _ := renderer.New(960, 600, renderer.WithExecutor(exec))
//
//	// 1. Schedule renders. Malformed snapshots fail here.
//	_ = r.Render(snap0)
//	_ = r.Render(snap1)
//
//	// 2. Run the queued tasks in order.
//	_ = exec.Drain()
//
//	// 3. Export the scene.
//	svg := render.RenderSVG(r.Scene())
//
// # Infrastructure
//
// [cache] - Layout and artifact caching with null, file, Redis and MongoDB
// backends.
//
// [config] - TOML configuration for the CLI and server.
//
// [server] - HTTP host with one renderer per session, WebSocket snapshot
// streaming and Prometheus metrics.
//
// [observability] - Hook interfaces for metrics; [observability/prom]
// implements them with Prometheus collectors.
//
// [httputil] - Cached, retrying fetcher for canvas background images.
//
// [errors] - Error codes shared by every package.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/layout
// [scene]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/scene
// [renderer]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/renderer
// [schedule]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/schedule
// [render]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/observability/prom
// [httputil]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/forcegraph/pkg/errors
package pkg
