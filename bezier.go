package tessera

import (
	"math"
	"sync"

	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// BezierCurve is a polynomial (or, with weights, rational) Bezier
// curve of degree len(points)-1 over the parameter domain [0, 1].
type BezierCurve struct {
	points  []vec3.T
	weights []float64 // nil for uniform unit weights
	degree  int

	cache  evalCache
	bboxMu sync.Mutex
	bbox   *BBox
}

// NewBezierCurve builds a Bezier curve from control points and
// optional parallel weights. Pass nil weights for a non-rational
// curve. Control data is validated eagerly: at least two points,
// weight count equal to point count, all weights finite and positive.
func NewBezierCurve(points []vec3.T, weights []float64) (*BezierCurve, error) {
	if len(points) < 2 {
		return nil, structural("bezier: need at least 2 control points, got %d", len(points))
	}
	if weights != nil {
		if len(weights) != len(points) {
			return nil, structural("bezier: %d weights for %d control points", len(weights), len(points))
		}
		for i, w := range weights {
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				return nil, structural("bezier: weight %d is %v, must be finite and positive", i, w)
			}
		}
		weights = append([]float64(nil), weights...)
	}

	return &BezierCurve{
		points:  append([]vec3.T(nil), points...),
		weights: weights,
		degree:  len(points) - 1,
	}, nil
}

func (c *BezierCurve) Degree() int { return c.degree }

// ControlPoints returns a copy of the control points.
func (c *BezierCurve) ControlPoints() []vec3.T {
	return append([]vec3.T(nil), c.points...)
}

// Weights returns a copy of the weights, or nil for a non-rational
// curve.
func (c *BezierCurve) Weights() []float64 {
	if c.weights == nil {
		return nil
	}
	return append([]float64(nil), c.weights...)
}

// Rational reports whether any weight differs from 1.
func (c *BezierCurve) Rational() bool {
	for _, w := range c.weights {
		if w != 1 {
			return true
		}
	}
	return false
}

// SetControlPoint replaces control point i. The memoization cache and
// bounding box are invalidated before returning. Requires exclusive
// access to the curve.
func (c *BezierCurve) SetControlPoint(i int, pt vec3.T) error {
	if i < 0 || i >= len(c.points) {
		return structural("bezier: control point index %d out of range [0, %d)", i, len(c.points))
	}
	c.points[i] = pt
	c.invalidate()
	return nil
}

// SetWeight replaces weight i, promoting the curve to rational if it
// had uniform weights. Invalidates the cache and bounding box.
func (c *BezierCurve) SetWeight(i int, w float64) error {
	if i < 0 || i >= len(c.points) {
		return structural("bezier: weight index %d out of range [0, %d)", i, len(c.points))
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return structural("bezier: weight %v must be finite and positive", w)
	}
	if c.weights == nil {
		c.weights = make([]float64, len(c.points))
		for j := range c.weights {
			c.weights[j] = 1
		}
	}
	c.weights[i] = w
	c.invalidate()
	return nil
}

func (c *BezierCurve) invalidate() {
	c.cache.clear()
	c.bboxMu.Lock()
	c.bbox = nil
	c.bboxMu.Unlock()
}

// Evaluate computes the position at t in [0,1] and, when derivatives
// > 0, the exact derivative vectors up to that order.
//
// The k-th derivative of the polynomial curve is obtained by forming
// the degree n-k finite-difference control polygon scaled by the
// falling factorial n(n-1)...(n-k+1) and evaluating it; rational
// curves differentiate numerator and denominator this way and combine
// them with the generalized quotient recurrence.
func (c *BezierCurve) Evaluate(t float64, derivatives int) (EvaluationResult, error) {
	if t < 0 || t > 1 {
		return EvaluationResult{}, &DomainError{Name: "t", Value: t, Min: 0, Max: 1}
	}
	if derivatives < 0 {
		return EvaluationResult{}, structural("bezier: negative derivative order %d", derivatives)
	}

	key := evalKey{u: t, order: derivatives}
	if res, ok := c.cache.get(key); ok {
		return res, nil
	}

	homo := internal.Homogenize1d(c.points, c.weights)
	ders := bezierHomoDerivatives(homo, t, derivatives)

	ck, err := rationalDerivatives(ders, derivatives, t, 0)
	if err != nil {
		return EvaluationResult{}, err
	}

	res := EvaluationResult{Point: ck[0]}
	if derivatives > 0 {
		res.Derivatives = ck[1:]
	}
	c.cache.put(key, res)

	return res, nil
}

// Tessellate samples segments+1 evenly spaced parameters and returns
// a line-strip mesh.
func (c *BezierCurve) Tessellate(segments int) (*Mesh, error) {
	return tessellateLineStrip(c, "bezier tessellate", segments)
}

// Subdivide returns a new curve whose control polygon has a true
// midpoint inserted between every pair of consecutive control points,
// repeated for the given number of iterations. This smooths the
// control polygon; it is a geometric aid, not knot refinement.
func (c *BezierCurve) Subdivide(iterations int) (*BezierCurve, error) {
	if iterations < 0 {
		return nil, structural("bezier: negative subdivision count %d", iterations)
	}

	points := c.ControlPoints()
	weights := c.Weights()

	for it := 0; it < iterations; it++ {
		if 2*len(points)-1 > MaxTessellationSegments {
			return nil, &ResourceLimitError{Op: "bezier subdivide", Value: 2*len(points) - 1, Limit: MaxTessellationSegments}
		}

		next := make([]vec3.T, 0, 2*len(points)-1)
		var nextW []float64
		if weights != nil {
			nextW = make([]float64, 0, 2*len(points)-1)
		}

		for i := range points {
			next = append(next, points[i])
			if weights != nil {
				nextW = append(nextW, weights[i])
			}
			if i+1 < len(points) {
				next = append(next, vec3.Interpolate(&points[i], &points[i+1], 0.5))
				if weights != nil {
					nextW = append(nextW, (weights[i]+weights[i+1])/2)
				}
			}
		}

		points, weights = next, nextW
	}

	return NewBezierCurve(points, weights)
}

// Revolve sweeps the curve's own profile around the Y axis through
// angle radians using radialSegments+1 angular steps, producing a
// quad-strip mesh. Each vertex normal is the cross product of the
// angular tangent and the rotated curve tangent.
func (c *BezierCurve) Revolve(angle float64, radialSegments int) (*Mesh, error) {
	if err := checkSegments("bezier revolve", radialSegments, 1); err != nil {
		return nil, err
	}
	if math.Abs(angle) < internal.Epsilon {
		return nil, structural("bezier: revolve through zero angle")
	}

	profSegs := 2 * len(c.points)
	positions := make([]vec3.T, profSegs+1)
	tangents := make([]vec3.T, profSegs+1)

	for i := 0; i <= profSegs; i++ {
		t := float64(i) / float64(profSegs)
		res, err := c.Evaluate(t, 1)
		if err != nil {
			return nil, err
		}
		positions[i] = res.Point
		tangents[i] = res.Derivatives[0]
	}

	mesh := newMesh()
	warned := false

	for j := 0; j <= radialSegments; j++ {
		theta := angle * float64(j) / float64(radialSegments)
		sin, cos := math.Sin(theta), math.Cos(theta)

		for i := 0; i <= profSegs; i++ {
			p := positions[i]
			pt := vec3.T{p[0]*cos + p[2]*sin, p[1], -p[0]*sin + p[2]*cos}

			// d/dtheta of the rotated point
			aTan := vec3.T{p[2]*cos - p[0]*sin, 0, -p[0]*cos - p[2]*sin}

			ct := tangents[i]
			cTan := vec3.T{ct[0]*cos + ct[2]*sin, ct[1], -ct[0]*sin + ct[2]*cos}

			normal := vec3.Cross(&aTan, &cTan)
			if normal.LengthSqr() < internal.Epsilon {
				// on-axis sample: the angular tangent vanishes
				if !warned {
					Logger().Warn("degenerate revolve normal, falling back to frame normal", "profile", i)
					warned = true
				}
				normal = frameAt(&cTan).Normal
			} else {
				normal.Normalize()
			}

			uv := vec2.T{float64(j) / float64(radialSegments), float64(i) / float64(profSegs)}
			mesh.addVertex(&pt, &normal, uv)
		}
	}

	ring := profSegs + 1
	for j := 0; j < radialSegments; j++ {
		for i := 0; i < profSegs; i++ {
			a := j*ring + i
			b := (j+1)*ring + i
			mesh.addQuad(a, b, b+1, a+1)
		}
	}

	Logger().Debug("revolved curve", "radialSegments", radialSegments, "vertices", mesh.VertexCount())

	return mesh, nil
}

// Extrude sweeps this curve's cross-section along path, with an
// optional linear twist ramp (radians over the whole path).
func (c *BezierCurve) Extrude(path Curve, sections int, twist float64) (*Mesh, error) {
	return sweepAlong(path, c, sections, twist, "bezier extrude")
}

// ClosestPoint finds the parameter minimizing distance to target with
// bounded Newton-Raphson. It never fails; callers compare the
// returned distance against their own tolerance.
func (c *BezierCurve) ClosestPoint(target vec3.T, maxIterations int) ClosestPointResult {
	seeds := len(c.points) * c.degree
	if seeds < 8 {
		seeds = 8
	}
	return closestOnCurve(c, target, maxIterations, seeds)
}

// BoundingBox returns the control-point bounding box, which contains
// the curve by the convex hull property (weights are positive).
func (c *BezierCurve) BoundingBox() BBox {
	c.bboxMu.Lock()
	defer c.bboxMu.Unlock()

	if c.bbox == nil {
		var box BBox
		box.AddRange(c.points)
		c.bbox = &box
	}
	return *c.bbox
}

// Length approximates the arc length by Gaussian quadrature.
func (c *BezierCurve) Length() float64 {
	return gaussLength(c, 0, 1)
}

func (c *BezierCurve) isCurve() {}

// bezierHomoDerivatives evaluates the homogeneous curve and its
// derivatives up to order at t. Each derivative order forms the
// finite-difference control polygon of the previous one; the falling
// factorial accumulates in factor. Orders beyond the degree are zero.
func bezierHomoDerivatives(pts []internal.HomoPoint, t float64, order int) []internal.HomoPoint {
	n := len(pts) - 1
	out := make([]internal.HomoPoint, order+1)
	cur := append([]internal.HomoPoint(nil), pts...)
	factor := 1.0

	for k := 0; k <= order; k++ {
		deg := n - k
		if deg < 0 {
			break
		}

		weights := internal.BernsteinWeights(deg, t)
		var sum internal.HomoPoint
		for i := 0; i <= deg; i++ {
			p := cur[i]
			p.Scale(weights[i])
			sum.Add(&p)
		}
		sum.Scale(factor)
		out[k] = sum

		for i := 0; i < deg; i++ {
			cur[i] = internal.HomoPoint{
				Vec3: vec3.Sub(&cur[i+1].Vec3, &cur[i].Vec3),
				W:    cur[i+1].W - cur[i].W,
			}
		}
		factor *= float64(deg)
	}

	return out
}

// rationalDerivatives converts homogeneous derivatives (A, w) into
// Euclidean derivatives of C = A/w by the generalized quotient
// recurrence
//
//	C^(k) = (A^(k) - sum_{i=1..k} C(k,i) w^(i) C^(k-i)) / w
//
// which is the fully expanded Leibniz form, valid for every order.
func rationalDerivatives(homo []internal.HomoPoint, order int, u, v float64) ([]vec3.T, error) {
	w0 := homo[0].W
	if math.Abs(w0) < internal.Epsilon {
		return nil, &DegenerateCurveError{U: u, V: v, Denom: w0}
	}

	ck := make([]vec3.T, 0, order+1)
	for k := 0; k <= order; k++ {
		vk := homo[k].Vec3
		for i := 1; i <= k; i++ {
			scaled := ck[k-i].Scaled(internal.Binomial(k, i) * homo[i].W)
			vk.Sub(&scaled)
		}
		vk.Scale(1 / w0)
		ck = append(ck, vk)
	}

	return ck, nil
}
