package tessera

import (
	"math"

	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// EvaluationResult is a curve position plus, when requested, the
// derivative vectors up to the requested order. Derivatives[0] is the
// first derivative.
type EvaluationResult struct {
	Point       vec3.T
	Derivatives []vec3.T
}

// ClosestPointResult is the outcome of a closest-point query: the
// parameter, the point on the curve at that parameter and its distance
// to the queried target.
type ClosestPointResult struct {
	T        float64
	Point    vec3.T
	Distance float64
}

// Curve is the closed set of curve variants: *BezierCurve and
// *Spline. Both are parameterized over [0, 1].
type Curve interface {
	// Evaluate returns the position at t and, when derivatives > 0,
	// the derivative vectors up to that order.
	Evaluate(t float64, derivatives int) (EvaluationResult, error)

	// Tessellate samples segments+1 evenly spaced parameters and
	// returns a line-strip mesh with frame normals and UV = (t, 0).
	Tessellate(segments int) (*Mesh, error)

	// ClosestPoint runs a bounded Newton iteration toward the
	// parameter minimizing distance to target. It never fails; the
	// caller decides whether the returned distance is a match.
	ClosestPoint(target vec3.T, maxIterations int) ClosestPointResult

	// BoundingBox returns the curve's axis-aligned bounding box,
	// computed lazily and invalidated by structural mutators.
	BoundingBox() BBox

	// Length approximates the arc length by Gaussian quadrature.
	Length() float64

	isCurve()
}

// tessellateLineStrip samples segments+1 evenly spaced parameters on
// c, derives a stable local frame at each from the first derivative,
// and emits a line-strip mesh: positions, frame normals, UV carrying
// the parameter value, and sequential index pairs.
func tessellateLineStrip(c Curve, op string, segments int) (*Mesh, error) {
	if err := checkSegments(op, segments, 1); err != nil {
		return nil, err
	}

	mesh := newMesh()

	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)

		res, err := c.Evaluate(t, 1)
		if err != nil {
			return nil, err
		}

		fr := frameAt(&res.Derivatives[0])
		mesh.addVertex(&res.Point, &fr.Normal, vec2.T{t, 0})

		if i > 0 {
			mesh.Lines = append(mesh.Lines, Line{i - 1, i})
		}
	}

	Logger().Debug("tessellated curve", "op", op, "segments", segments, "vertices", mesh.VertexCount())

	return mesh, nil
}

// closestOnCurve seeds a parameter by projecting target onto a coarse
// polyline sample of c, then refines with Newton-Raphson:
//
//	t <- t - (C(t)-target) . C'(t) / |C'(t)|^2
//
// clamped to [0,1] each step. The iteration terminates after
// maxIterations regardless of convergence and returns the best point
// found; a near-zero derivative magnitude early-terminates rather than
// failing.
func closestOnCurve(c Curve, target vec3.T, maxIterations, seedSamples int) ClosestPointResult {
	if maxIterations > MaxNewtonIterations {
		maxIterations = MaxNewtonIterations
	}
	if seedSamples < 2 {
		seedSamples = 2
	}

	// coarse polyline seed
	best := ClosestPointResult{Distance: math.MaxFloat64}

	prevT := 0.0
	prev, err := c.Evaluate(0, 0)
	if err != nil {
		return best
	}

	consider := func(t float64, pt vec3.T) {
		d := vec3.Distance(&pt, &target)
		if d < best.Distance {
			best = ClosestPointResult{T: t, Point: pt, Distance: d}
		}
	}
	consider(0, prev.Point)

	for i := 1; i <= seedSamples; i++ {
		t := float64(i) / float64(seedSamples)
		res, err := c.Evaluate(t, 0)
		if err != nil {
			return best
		}

		projT, projPt := segmentClosestParam(&target, &prev.Point, &res.Point, prevT, t)
		consider(projT, projPt)
		consider(t, res.Point)

		prevT, prev = t, res
	}

	// Newton refinement
	t := best.T
	for i := 0; i < maxIterations; i++ {
		res, err := c.Evaluate(t, 1)
		if err != nil {
			break
		}

		d := res.Derivatives[0]
		dd := vec3.Dot(&d, &d)
		if dd < internal.Epsilon {
			// near-zero derivative: stop and keep the best point found
			break
		}

		diff := vec3.Sub(&res.Point, &target)
		step := vec3.Dot(&diff, &d) / dd

		next := t - step
		if next < 0 {
			next = 0
		} else if next > 1 {
			next = 1
		}

		nres, err := c.Evaluate(next, 0)
		if err != nil {
			break
		}
		consider(next, nres.Point)

		if math.Abs(next-t) < internal.Tolerance {
			break
		}
		t = next
	}

	return best
}

// segmentClosestParam projects pt onto the segment (a, b) carrying
// parameters (u0, u1) and returns the interpolated parameter and
// projected point.
func segmentClosestParam(pt, a, b *vec3.T, u0, u1 float64) (float64, vec3.T) {
	dif := vec3.Sub(b, a)
	l := dif.Length()
	if l < internal.Epsilon {
		return u0, *a
	}

	dir := dif.Scaled(1 / l)
	o2pt := vec3.Sub(pt, a)
	proj := vec3.Dot(&o2pt, &dir)

	if proj < 0 {
		return u0, *a
	}
	if proj > l {
		return u1, *b
	}

	offset := dir.Scaled(proj)
	return u0 + (u1-u0)*proj/l, vec3.Add(a, &offset)
}
