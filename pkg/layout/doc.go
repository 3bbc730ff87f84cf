// Package layout computes node positions with a deterministic force-directed
// simulation.
//
// # Overview
//
// [Run] places every node of a normalized [graph.Snapshot] by relaxing a
// spring system for a fixed number of ticks. The tick count is derived from
// the cooling schedule alone:
//
//	n = ceil(log(AlphaMin) / log(1 - AlphaDecay))
//
// All n ticks always run. There is no early exit on convergence, so two runs
// over the same snapshot and [Params] produce bit-identical coordinates.
//
// # Forces
//
// Each tick the simulation temperature (alpha) moves toward AlphaTarget by
// AlphaDecay, then the enabled forces add to node velocities:
//
//   - Link: a spring of rest length LinkDistance along every edge. Its
//     strength is 1/min(degree) of the two endpoints and the correction is
//     split between them in proportion to their degrees.
//   - Charge (optional): exact pairwise repulsion, see [Charge].
//   - Center (optional): translates the node set so its mean sits at the
//     configured point, see [Center].
//
// Velocities are then damped by VelocityDecay and added to positions.
//
// # Initial Placement
//
// Nodes that already carry a position start there. All others are placed on
// a phyllotaxis spiral by their index in the snapshot. Coincident points are
// separated by a tiny jiggle drawn from a linear congruential generator that
// is seeded with a constant per simulation. No wall clock or global random
// source is consulted.
//
// # Stepping
//
// [NewSimulation] exposes the same engine one tick at a time for tools that
// want to watch the relaxation:
//
//	sim, err := layout.NewSimulation(snap, layout.DefaultParams())
//	for i := 0; i < sim.Iterations(); i++ {
//	    sim.Tick()
//	}
//	sim.Apply()
package layout
