// Package renderer sequences snapshot normalization, layout and scene
// reconciliation behind a small lifecycle API.
//
// # Lifecycle
//
// A [Renderer] is built once per canvas with [New]. It then accepts any
// number of [Renderer.Render] and [Renderer.Reset] calls:
//
//   - Render validates the snapshot immediately and returns
//     *graph.MalformedSnapshotError without queuing anything when it is
//     malformed. A valid snapshot is copied and a render task is submitted to
//     the executor. The layout and the scene update happen when that task
//     runs, never inside Render.
//   - Reset replaces the scene's root group at once. It does not touch the
//     queue: a render task that fires after a Reset draws into the fresh
//     group.
//
// Render tasks run strictly in submission order. Every Render enqueues; two
// quick calls draw twice. [WithCancelSuperseded] opts into skipping tasks
// that a newer Render has made stale.
//
// # State
//
// [Renderer.State] is [Idle] when no render task is queued and
// [RenderScheduled] otherwise. Reset never changes it.
//
// # Executor
//
// Tasks go to a [schedule.Executor]. Tests and one-shot tools drive it
// directly with Step or Drain; servers hand it to a [schedule.Loop] so tasks
// run between synchronous calls.
package renderer
