// Package surface manages the interactive state every plot view
// shares: the canvas it draws on, the zoom/pan view transform, and
// step playback with interpolated transitions.
//
// A [Surface] owns no plotting logic. Callers hand [New] a draw
// callback; the surface decides when to invoke it and with what
// [Frame]. Capabilities are opt-in through [Config]: a nil Zoom makes
// zoom and pan calls inert, a nil Playback does the same for the
// transport controls, so a static view and a fully interactive one run
// through the identical code path.
//
// Draw callbacks are never invoked concurrently. Playback timers go
// through a [Clock], so tests drive transitions without sleeping.
package surface
