// Package physics defines the backend-neutral surface a physics engine must
// provide to be driven by the scheduler.
//
// An [Engine] owns one world for a load/close cycle. It creates:
//
//   - [Body]: a rigid body placed from configuration
//   - [Shape]: a collision volume owned by one body ([Box] is the only kind)
//   - [Joint]: a two-body constraint, either [KindHinge] or [KindBall]
//
// Joint accessors are indexed by axis. A hinge has a single axis, so any
// index other than zero fails with [ErrInvalidAxis]. A ball joint accepts
// every axis operation and answers with neutral values, since a point
// constraint has no rotational axis of its own.
//
// Engines register themselves by name:
//
//	func init() {
//		physics.Register("planar", func() physics.Engine { return New() })
//	}
//
// and are built with [Registry.New]. Backend objects are not safe for
// concurrent use; the scheduler serializes every call under its lock.
package physics
