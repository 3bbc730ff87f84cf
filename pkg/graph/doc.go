// Package graph defines the snapshot model consumed by the renderer.
//
// A snapshot is one immutable state of a network (nodes plus edges) produced
// by an external simulation. This package sits at the boundary between that
// wire data and the rest of forcegraph:
//
//   - [RawSnapshot], [RawNode], [RawEdge]: wire types (JSON or YAML)
//   - [Snapshot], [Node], [Edge]: normalized records with resolved endpoints
//   - [Layout]: serialized node positions produced by the layout engine
//
// # Snapshot Format
//
//	{
//	  "nodes": [
//	    {"id": 1, "size": 6, "color": "#1f77b4", "tooltip": "agent 1"},
//	    {"id": 2, "size": 4, "color": "red"}
//	  ],
//	  "edges": [
//	    {"source": 1, "target": 2, "width": 2, "color": "#999"}
//	  ]
//	}
//
// Node ids may be strings or numbers; numbers keep their decimal text, so
// 1 and "1" name the same node. A node may carry optional "x"/"y" seed
// coordinates which the layout engine starts from instead of its default
// placement.
//
// # Normalization
//
// [Normalize] deep-copies a raw snapshot and validates it. Edge endpoints
// are resolved to direct *Node references, so coordinates written by the
// layout engine are visible through edges with no extra step:
//
//	snap, err := graph.Normalize(raw)
//	var malformed *graph.MalformedSnapshotError
//	if errors.As(err, &malformed) {
//	    // dangling edge, missing field, duplicate id ...
//	}
//
// The caller's raw snapshot is never modified.
//
// # Concurrency
//
// Snapshots are plain values without internal locking. A normalized
// snapshot is owned by exactly one render cycle.
package graph
