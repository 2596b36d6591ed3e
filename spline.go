package tessera

import (
	"math"
	"sync"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// SplineBasis selects the blending functions of a piecewise cubic
// spline.
type SplineBasis int

const (
	// BasisCatmullRom interpolates every control point, with tangents
	// derived from neighboring points scaled by the tension.
	BasisCatmullRom SplineBasis = iota

	// BasisHermite interpolates control points using caller-supplied
	// tangent vectors.
	BasisHermite

	// BasisBSpline is the uniform cubic B-spline, which approximates
	// its control points with C2 continuity.
	BasisBSpline
)

func (b SplineBasis) String() string {
	switch b {
	case BasisCatmullRom:
		return "catmull-rom"
	case BasisHermite:
		return "hermite"
	case BasisBSpline:
		return "cubic-bspline"
	default:
		return "unknown"
	}
}

// Spline is a piecewise cubic curve over [0, 1]. The global parameter
// maps linearly onto the segments, so derivatives carry a chain-rule
// factor of the segment count per order.
type Spline struct {
	points   []vec3.T
	basis    SplineBasis
	tension  float64
	tangents []vec3.T // per-point; nil for the B-spline basis

	// autoTangents marks tangents derived from the points; they are
	// recomputed when a control point changes.
	autoTangents bool

	cache  evalCache
	bboxMu sync.Mutex
	bbox   *BBox
}

// NewSpline builds a piecewise cubic curve. The tension scales the
// derived cardinal tangents; the conventional value is 0.5. It is
// ignored by the B-spline basis. The Hermite basis derives cardinal
// tangents here; use NewHermiteSpline to supply explicit ones.
func NewSpline(points []vec3.T, basis SplineBasis, tension float64) (*Spline, error) {
	switch basis {
	case BasisCatmullRom, BasisHermite:
		if len(points) < 2 {
			return nil, structural("spline: %s needs at least 2 points, got %d", basis, len(points))
		}
	case BasisBSpline:
		if len(points) < 4 {
			return nil, structural("spline: cubic b-spline needs at least 4 points, got %d", len(points))
		}
	default:
		return nil, structural("spline: unknown basis %d", basis)
	}
	if math.IsNaN(tension) || math.IsInf(tension, 0) {
		return nil, structural("spline: tension is %v", tension)
	}

	s := &Spline{
		points:  append([]vec3.T(nil), points...),
		basis:   basis,
		tension: tension,
	}
	if basis != BasisBSpline {
		s.tangents = catmullRomTangents(s.points, tension)
		s.autoTangents = true
	}
	return s, nil
}

// NewHermiteSpline builds a Hermite spline from control points and a
// parallel slice of tangent vectors.
func NewHermiteSpline(points, tangents []vec3.T) (*Spline, error) {
	if len(points) < 2 {
		return nil, structural("spline: hermite needs at least 2 points, got %d", len(points))
	}
	if len(tangents) != len(points) {
		return nil, structural("spline: %d tangents for %d points", len(tangents), len(points))
	}

	return &Spline{
		points:   append([]vec3.T(nil), points...),
		basis:    BasisHermite,
		tangents: append([]vec3.T(nil), tangents...),
	}, nil
}

func (s *Spline) Basis() SplineBasis { return s.basis }
func (s *Spline) Tension() float64   { return s.tension }

// ControlPoints returns a copy of the control points.
func (s *Spline) ControlPoints() []vec3.T {
	return append([]vec3.T(nil), s.points...)
}

// Tangents returns a copy of the per-point tangents, or nil for the
// B-spline basis.
func (s *Spline) Tangents() []vec3.T {
	if s.tangents == nil {
		return nil
	}
	return append([]vec3.T(nil), s.tangents...)
}

// SetControlPoint replaces control point i. Derived tangents are
// recomputed; the memoization cache and bounding box are invalidated
// before returning. Requires exclusive access to the curve.
func (s *Spline) SetControlPoint(i int, pt vec3.T) error {
	if i < 0 || i >= len(s.points) {
		return structural("spline: control point index %d out of range [0, %d)", i, len(s.points))
	}
	s.points[i] = pt
	if s.autoTangents {
		s.tangents = catmullRomTangents(s.points, s.tension)
	}
	s.invalidate()
	return nil
}

// SetTangent replaces tangent i of a Hermite spline. Once a tangent is
// set explicitly, later control point edits keep the stored tangents
// instead of re-deriving them. Invalidates the cache and bounding box.
func (s *Spline) SetTangent(i int, tangent vec3.T) error {
	if s.basis != BasisHermite {
		return structural("spline: %s basis has no settable tangents", s.basis)
	}
	if i < 0 || i >= len(s.tangents) {
		return structural("spline: tangent index %d out of range [0, %d)", i, len(s.tangents))
	}
	s.tangents[i] = tangent
	s.autoTangents = false
	s.invalidate()
	return nil
}

func (s *Spline) invalidate() {
	s.cache.clear()
	s.bboxMu.Lock()
	s.bbox = nil
	s.bboxMu.Unlock()
}

// segments is the piece count the global parameter spans.
func (s *Spline) segments() int {
	if s.basis == BasisBSpline {
		return len(s.points) - 3
	}
	return len(s.points) - 1
}

// catmullRomTangents derives cardinal tangents: interior points use
// the scaled central difference, endpoints the doubled one-sided
// difference so the end tangent matches the central-difference value
// a phantom mirrored point would give.
func catmullRomTangents(points []vec3.T, tension float64) []vec3.T {
	n := len(points)
	out := make([]vec3.T, n)

	first := vec3.Sub(&points[1], &points[0])
	out[0] = first.Scaled(2 * tension)
	for i := 1; i < n-1; i++ {
		d := vec3.Sub(&points[i+1], &points[i-1])
		out[i] = d.Scaled(tension)
	}
	last := vec3.Sub(&points[n-1], &points[n-2])
	out[n-1] = last.Scaled(2 * tension)

	return out
}

// Evaluate computes the position at t in [0,1] and derivative vectors
// up to the requested order. Orders above 3 are zero for a cubic.
func (s *Spline) Evaluate(t float64, derivatives int) (EvaluationResult, error) {
	if t < 0 || t > 1 {
		return EvaluationResult{}, &DomainError{Name: "t", Value: t, Min: 0, Max: 1}
	}
	if derivatives < 0 {
		return EvaluationResult{}, structural("spline: negative derivative order %d", derivatives)
	}

	key := evalKey{u: t, order: derivatives}
	if res, ok := s.cache.get(key); ok {
		return res, nil
	}

	nseg := s.segments()
	x := t * float64(nseg)
	seg := int(x)
	if seg > nseg-1 {
		seg = nseg - 1
	}
	u := x - float64(seg)

	var ctrl [4]vec3.T
	var rows [3][4]float64
	var row3 [4]float64

	if s.basis == BasisBSpline {
		copy(ctrl[:], s.points[seg:seg+4])
		rows = internal.UniformBSplineWeights(u)
		row3 = [4]float64{-1, 3, -3, 1}
	} else {
		ctrl = [4]vec3.T{s.points[seg], s.tangents[seg], s.points[seg+1], s.tangents[seg+1]}
		rows = internal.HermiteWeights(u)
		row3 = [4]float64{12, 6, -12, 6}
	}

	res := EvaluationResult{Point: blend4(&ctrl, rows[0])}
	if derivatives > 0 {
		res.Derivatives = make([]vec3.T, derivatives)
		scale := float64(nseg)
		for k := 1; k <= derivatives; k++ {
			switch {
			case k <= 2:
				d := blend4(&ctrl, rows[k])
				res.Derivatives[k-1] = d.Scaled(scale)
			case k == 3:
				d := blend4(&ctrl, row3)
				res.Derivatives[k-1] = d.Scaled(scale)
			default:
				// zero for a cubic
			}
			scale *= float64(nseg)
		}
	}
	s.cache.put(key, res)

	return res, nil
}

func blend4(ctrl *[4]vec3.T, w [4]float64) vec3.T {
	var out vec3.T
	for i := 0; i < 4; i++ {
		p := ctrl[i].Scaled(w[i])
		out.Add(&p)
	}
	return out
}

// Tessellate samples segments+1 evenly spaced parameters and returns
// a line-strip mesh.
func (s *Spline) Tessellate(segments int) (*Mesh, error) {
	return tessellateLineStrip(s, "spline tessellate", segments)
}

// Sweep extrudes the profile curve's cross-section along this spline.
func (s *Spline) Sweep(profile Curve, sections int) (*Mesh, error) {
	return sweepAlong(s, profile, sections, 0, "spline sweep")
}

// ClosestPoint finds the parameter minimizing distance to target with
// bounded Newton-Raphson.
func (s *Spline) ClosestPoint(target vec3.T, maxIterations int) ClosestPointResult {
	seeds := 4 * s.segments()
	if seeds < 8 {
		seeds = 8
	}
	return closestOnCurve(s, target, maxIterations, seeds)
}

// BoundingBox bounds the control points together with a dense curve
// sampling. Interpolating bases can overshoot their control polygon,
// so points alone are not sufficient.
func (s *Spline) BoundingBox() BBox {
	s.bboxMu.Lock()
	defer s.bboxMu.Unlock()

	if s.bbox == nil {
		var box BBox
		box.AddRange(s.points)
		samples := 8 * s.segments()
		for i := 0; i <= samples; i++ {
			res, err := s.Evaluate(float64(i)/float64(samples), 0)
			if err == nil {
				box.Add(&res.Point)
			}
		}
		s.bbox = &box
	}
	return *s.bbox
}

// Length approximates the arc length by per-segment Gaussian
// quadrature.
func (s *Spline) Length() float64 {
	nseg := s.segments()
	total := 0.0
	for i := 0; i < nseg; i++ {
		a := float64(i) / float64(nseg)
		b := float64(i+1) / float64(nseg)
		total += gaussLength(s, a, b)
	}
	return total
}

func (s *Spline) isCurve() {}
