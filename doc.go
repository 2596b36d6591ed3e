// Package tessera models parametric curves and surfaces - Bezier
// curves, cardinal/Hermite/B-spline splines, arbitrary parametric
// surfaces and rational B-spline (NURBS) surfaces - and converts them
// into renderable line-strip and triangle meshes.
//
// All computation is synchronous, CPU-bound and allocation-owned by
// the caller: Tessellate returns a fresh Mesh every call and entities
// retain no reference to it. Entities are safe for concurrent
// read-only evaluation; structural mutators (SetControlPoint,
// InsertKnot, Trim) require exclusive access to the instance.
//
// Vector arithmetic is provided by github.com/ungerik/go3d; this
// package does not reimplement it.
package tessera
