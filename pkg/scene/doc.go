// Package scene holds the retained visual model of a rendered graph and
// reconciles it against successive snapshots.
//
// # Structure
//
// A [Scene] owns a [Canvas], one root [Group] and a single [Tooltip]. The
// group has two layers: edge lines below node circles. Each visual is keyed
// by identity: a node by its id, an edge by [graph.EdgeKey].
//
// # Reconciliation
//
// [Reconcile] joins a laid-out snapshot against the current group, edges
// first and then nodes:
//
//   - enter: records with no visual get a new one, appended to the layer in
//     snapshot order
//   - update: records that already have a visual are left alone under
//     [ModeFreeze], or re-attributed from the record under [ModeRefresh]
//   - exit: visuals with no record are removed
//
// ModeFreeze is the default. A node that moves between snapshots keeps its
// first drawn position until it exits and re-enters, or until the group is
// replaced with [Scene.ResetGroup].
//
// The whole join is planned and checked before the group is touched, so a
// failed Reconcile leaves the previous scene intact.
//
// # Interaction
//
// [Scene.PointerEnter] and [Scene.PointerLeave] drive the tooltip. Every
// event replaces the running transition, starting from the opacity the
// tooltip had at that instant; the most recent event always decides where
// the tooltip ends up.
package scene
