package tessera

import (
	"math"
	"sync"

	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// Axis selects a parametric direction of a surface.
type Axis int

const (
	AxisU Axis = iota
	AxisV
)

func (a Axis) String() string {
	if a == AxisU {
		return "u"
	}
	return "v"
}

// NURBSSurface is a non-uniform rational B-spline surface. Control
// points are stored homogeneous, indexed [u][v]. Evaluation follows
// algorithms 3.5 and 3.6 from The NURBS Book (Piegl & Tiller, 2nd
// edition), with the rational correction applied on top.
//
// The active domain may be trimmed to a sub-rectangle of the knot
// domain; evaluation and tessellation then operate on the trimmed
// rectangle only.
type NURBSSurface struct {
	degreeU, degreeV int
	controlPoints    [][]internal.HomoPoint
	knotsU, knotsV   internal.KnotVec

	trimU0, trimU1 float64
	trimV0, trimV1 float64

	cache  evalCache
	bboxMu sync.Mutex
	bbox   *BBox
}

// NewNURBSSurface builds a surface from a rectangular control grid
// (outer index u, inner index v), optional parallel weights (nil for
// uniform unit weights) and clamped knot vectors satisfying
// len(knots) = len(points) + degree + 1 per direction.
func NewNURBSSurface(degreeU, degreeV int, points [][]vec3.T, weights [][]float64, knotsU, knotsV []float64) (*NURBSSurface, error) {
	if degreeU < 1 || degreeV < 1 {
		return nil, structural("nurbs: degrees (%d, %d) must be at least 1", degreeU, degreeV)
	}
	if len(points) < degreeU+1 {
		return nil, structural("nurbs: %d control rows for degree %d, need at least %d", len(points), degreeU, degreeU+1)
	}
	cols := len(points[0])
	for i, row := range points {
		if len(row) != cols {
			return nil, structural("nurbs: control row %d has %d points, expected %d", i, len(row), cols)
		}
	}
	if cols < degreeV+1 {
		return nil, structural("nurbs: %d control columns for degree %d, need at least %d", cols, degreeV, degreeV+1)
	}

	if weights != nil {
		if len(weights) != len(points) {
			return nil, structural("nurbs: %d weight rows for %d control rows", len(weights), len(points))
		}
		for i, row := range weights {
			if len(row) != cols {
				return nil, structural("nurbs: weight row %d has %d entries, expected %d", i, len(row), cols)
			}
			for j, w := range row {
				if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
					return nil, structural("nurbs: weight (%d, %d) is %v, must be finite and positive", i, j, w)
				}
			}
		}
	}

	ku := internal.KnotVec(knotsU).Clone()
	kv := internal.KnotVec(knotsV).Clone()
	if len(ku) != len(points)+degreeU+1 {
		return nil, structural("nurbs: %d u-knots for %d rows of degree %d, expected %d", len(ku), len(points), degreeU, len(points)+degreeU+1)
	}
	if len(kv) != cols+degreeV+1 {
		return nil, structural("nurbs: %d v-knots for %d columns of degree %d, expected %d", len(kv), cols, degreeV, cols+degreeV+1)
	}
	if !ku.IsClamped(degreeU) {
		return nil, structural("nurbs: u knot vector is not clamped non-decreasing")
	}
	if !kv.IsClamped(degreeV) {
		return nil, structural("nurbs: v knot vector is not clamped non-decreasing")
	}

	u0, u1 := ku.Domain()
	v0, v1 := kv.Domain()

	return &NURBSSurface{
		degreeU:       degreeU,
		degreeV:       degreeV,
		controlPoints: internal.Homogenize2d(points, weights),
		knotsU:        ku,
		knotsV:        kv,
		trimU0:        u0, trimU1: u1,
		trimV0: v0, trimV1: v1,
	}, nil
}

func (s *NURBSSurface) DegreeU() int { return s.degreeU }
func (s *NURBSSurface) DegreeV() int { return s.degreeV }

// ControlPoints returns a dehomogenized copy of the control grid.
func (s *NURBSSurface) ControlPoints() [][]vec3.T {
	return internal.Dehomogenize2d(s.controlPoints)
}

// Weights returns a copy of the weight grid.
func (s *NURBSSurface) Weights() [][]float64 {
	return internal.Weight2d(s.controlPoints)
}

func (s *NURBSSurface) KnotsU() []float64 { return s.knotsU.Clone() }
func (s *NURBSSurface) KnotsV() []float64 { return s.knotsV.Clone() }

// Domain returns the active (possibly trimmed) parameter rectangle.
func (s *NURBSSurface) Domain() (u0, u1, v0, v1 float64) {
	return s.trimU0, s.trimU1, s.trimV0, s.trimV1
}

func (s *NURBSSurface) checkDomain(u, v float64) error {
	if u < s.trimU0 || u > s.trimU1 {
		return &DomainError{Name: "u", Value: u, Min: s.trimU0, Max: s.trimU1}
	}
	if v < s.trimV0 || v > s.trimV1 {
		return &DomainError{Name: "v", Value: v, Min: s.trimV0, Max: s.trimV1}
	}
	return nil
}

func (s *NURBSSurface) invalidate() {
	s.cache.clear()
	s.bboxMu.Lock()
	s.bbox = nil
	s.bboxMu.Unlock()
}

// SetControlPoint replaces the control point at (i, j), keeping its
// weight. Invalidates the cache and bounding box.
func (s *NURBSSurface) SetControlPoint(i, j int, pt vec3.T) error {
	if i < 0 || i >= len(s.controlPoints) || j < 0 || j >= len(s.controlPoints[0]) {
		return structural("nurbs: control point (%d, %d) out of %dx%d grid", i, j, len(s.controlPoints), len(s.controlPoints[0]))
	}
	s.controlPoints[i][j] = internal.Homogenized(pt, s.controlPoints[i][j].W)
	s.invalidate()
	return nil
}

// SetWeight replaces the weight at (i, j), keeping the Euclidean
// position of the control point. Invalidates the cache and bounding
// box.
func (s *NURBSSurface) SetWeight(i, j int, w float64) error {
	if i < 0 || i >= len(s.controlPoints) || j < 0 || j >= len(s.controlPoints[0]) {
		return structural("nurbs: weight (%d, %d) out of %dx%d grid", i, j, len(s.controlPoints), len(s.controlPoints[0]))
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return structural("nurbs: weight %v must be finite and positive", w)
	}
	s.controlPoints[i][j] = internal.Homogenized(s.controlPoints[i][j].Dehomogenized(), w)
	s.invalidate()
	return nil
}

// Evaluate returns the surface point at (u, v).
func (s *NURBSSurface) Evaluate(u, v float64) (vec3.T, error) {
	grid, err := s.Derivatives(u, v, 0)
	if err != nil {
		return vec3.T{}, err
	}
	return grid[0][0], nil
}

// Derivatives returns the partial derivatives up to order as a
// triangular grid: out[k][l] differentiates k times in u and l times
// in v. Homogeneous derivatives come from the B-spline derivative
// algorithm; the rational quotient recurrence then divides out the
// weight function order by order.
func (s *NURBSSurface) Derivatives(u, v float64, order int) ([][]vec3.T, error) {
	if err := s.checkDomain(u, v); err != nil {
		return nil, err
	}
	if order < 0 {
		return nil, structural("nurbs: negative derivative order %d", order)
	}

	key := evalKey{u: u, v: v, order: order}
	if res, ok := s.cache.get(key); ok {
		return unpackDerivs(res, order), nil
	}

	skl := s.homoDerivatives(u, v, order)
	grid, err := s.rationalGrid(skl, order, u, v)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, packDerivs(grid))
	return grid, nil
}

// homoDerivatives evaluates the homogeneous surface derivatives,
// algorithm 3.6. Each u-derivative row of basis functions weights a
// strip of control points; the v basis rows then collapse the strip.
func (s *NURBSSurface) homoDerivatives(u, v float64, order int) [][]internal.HomoPoint {
	spanU := s.knotsU.Span(s.degreeU, u)
	spanV := s.knotsV.Span(s.degreeV, v)
	uders := internal.DerivativeBasisFunctions(spanU, u, s.degreeU, order, s.knotsU)
	vders := internal.DerivativeBasisFunctions(spanV, v, s.degreeV, order, s.knotsV)

	skl := make([][]internal.HomoPoint, order+1)
	for i := range skl {
		skl[i] = make([]internal.HomoPoint, order+1-i)
	}

	temp := make([]internal.HomoPoint, s.degreeV+1)
	for k := 0; k <= order; k++ {
		for t := range temp {
			temp[t] = internal.HomoPoint{}
			for r := 0; r <= s.degreeU; r++ {
				p := s.controlPoints[spanU-s.degreeU+r][spanV-s.degreeV+t]
				p.Scale(uders[k][r])
				temp[t].Add(&p)
			}
		}

		for l := 0; l <= order-k; l++ {
			var d internal.HomoPoint
			for t := 0; t <= s.degreeV; t++ {
				p := temp[t]
				p.Scale(vders[l][t])
				d.Add(&p)
			}
			skl[k][l] = d
		}
	}

	return skl
}

// rationalGrid converts homogeneous derivatives (A, w) into Euclidean
// derivatives of S = A/w with the bivariate quotient recurrence.
func (s *NURBSSurface) rationalGrid(skl [][]internal.HomoPoint, order int, u, v float64) ([][]vec3.T, error) {
	w00 := skl[0][0].W
	if math.Abs(w00) < internal.Epsilon {
		return nil, &DegenerateCurveError{U: u, V: v, Denom: w00}
	}

	out := make([][]vec3.T, order+1)
	for i := range out {
		out[i] = make([]vec3.T, order+1-i)
	}

	for k := 0; k <= order; k++ {
		for l := 0; l <= order-k; l++ {
			vd := skl[k][l].Vec3

			for j := 1; j <= l; j++ {
				scaled := out[k][l-j].Scaled(internal.Binomial(l, j) * skl[0][j].W)
				vd.Sub(&scaled)
			}

			for i := 1; i <= k; i++ {
				scaled := out[k-i][l].Scaled(internal.Binomial(k, i) * skl[i][0].W)
				vd.Sub(&scaled)

				var inner vec3.T
				for j := 1; j <= l; j++ {
					scaled := out[k-i][l-j].Scaled(internal.Binomial(l, j) * skl[i][j].W)
					inner.Add(&scaled)
				}
				scaled = inner.Scaled(internal.Binomial(k, i))
				vd.Sub(&scaled)
			}

			vd.Scale(1 / w00)
			out[k][l] = vd
		}
	}

	return out, nil
}

// Normal returns the unit normal cross(Su, Sv) at (u, v). A vanishing
// cross product (a pole, a collapsed edge) yields a
// DegenerateCurveError.
func (s *NURBSSurface) Normal(u, v float64) (vec3.T, error) {
	grid, err := s.Derivatives(u, v, 1)
	if err != nil {
		return vec3.T{}, err
	}
	n := vec3.Cross(&grid[1][0], &grid[0][1])
	if n.LengthSqr() < internal.Epsilon {
		return vec3.T{}, &DegenerateCurveError{U: u, V: v, Denom: n.Length()}
	}
	n.Normalize()
	return n, nil
}

// InsertKnot inserts value once into the knot vector of the given
// axis without changing the surface shape. The value must lie
// strictly inside the knot domain, and its multiplicity may not
// exceed the degree.
func (s *NURBSSurface) InsertKnot(axis Axis, value float64) error {
	var knots internal.KnotVec
	var degree int
	if axis == AxisU {
		knots, degree = s.knotsU, s.degreeU
	} else {
		knots, degree = s.knotsV, s.degreeV
	}

	min, max := knots.Domain()
	if value <= min || value >= max {
		return &DomainError{Name: axis.String(), Value: value, Min: min, Max: max}
	}
	for _, km := range knots.Multiplicities() {
		if math.Abs(km.Knot-value) < internal.Epsilon && km.Mult >= degree {
			return structural("nurbs: knot %v already has multiplicity %d, degree is %d", value, km.Mult, degree)
		}
	}

	insert := []float64{value}

	if axis == AxisV {
		var newKnots internal.KnotVec
		for i, row := range s.controlPoints {
			s.controlPoints[i], newKnots = refineKnotVector(s.degreeV, row, s.knotsV, insert)
		}
		s.knotsV = newKnots
	} else {
		grid := transposeGrid(s.controlPoints)
		var newKnots internal.KnotVec
		for i, row := range grid {
			grid[i], newKnots = refineKnotVector(s.degreeU, row, s.knotsU, insert)
		}
		s.controlPoints = transposeGrid(grid)
		s.knotsU = newKnots
	}

	s.invalidate()
	Logger().Debug("inserted knot", "axis", axis.String(), "value", value)
	return nil
}

// Trim restricts the active domain to [u0, u1] x [v0, v1], which must
// lie within the knot domain with positive extent in both directions.
func (s *NURBSSurface) Trim(u0, u1, v0, v1 float64) error {
	ku0, ku1 := s.knotsU.Domain()
	kv0, kv1 := s.knotsV.Domain()

	if u0 < ku0 || u0 > ku1 || u1 < ku0 || u1 > ku1 || u1 <= u0 {
		return &DomainError{Name: "u", Value: u0, Min: ku0, Max: ku1}
	}
	if v0 < kv0 || v0 > kv1 || v1 < kv0 || v1 > kv1 || v1 <= v0 {
		return &DomainError{Name: "v", Value: v0, Min: kv0, Max: kv1}
	}

	s.trimU0, s.trimU1 = u0, u1
	s.trimV0, s.trimV1 = v0, v1
	s.cache.clear()
	return nil
}

// Tessellate samples a regular grid over the active domain and
// triangulates it. UVs are normalized over the trimmed rectangle. A
// sample with a degenerate normal borrows the normal of a sample
// nudged toward the domain center.
func (s *NURBSSurface) Tessellate(uSegments, vSegments int) (*Mesh, error) {
	if err := checkSegments("nurbs tessellate", uSegments, 1); err != nil {
		return nil, err
	}
	if err := checkSegments("nurbs tessellate", vSegments, 1); err != nil {
		return nil, err
	}

	mesh := newMesh()
	warned := false

	for j := 0; j <= vSegments; j++ {
		fv := float64(j) / float64(vSegments)
		v := s.trimV0 + fv*(s.trimV1-s.trimV0)
		for i := 0; i <= uSegments; i++ {
			fu := float64(i) / float64(uSegments)
			u := s.trimU0 + fu*(s.trimU1-s.trimU0)

			grid, err := s.Derivatives(u, v, 1)
			if err != nil {
				return nil, err
			}

			n := vec3.Cross(&grid[1][0], &grid[0][1])
			if n.LengthSqr() < internal.Epsilon {
				n = s.nudgedNormal(u, v)
				if !warned {
					Logger().Warn("degenerate surface normal during tessellation", "u", u, "v", v)
					warned = true
				}
			} else {
				n.Normalize()
			}

			mesh.addVertex(&grid[0][0], &n, vec2.T{fu, fv})
		}
	}

	ring := uSegments + 1
	for j := 0; j < vSegments; j++ {
		for i := 0; i < uSegments; i++ {
			a := j*ring + i
			mesh.addQuad(a, a+1, a+1+ring, a+ring)
		}
	}

	Logger().Debug("tessellated nurbs surface", "uSegments", uSegments, "vSegments", vSegments, "vertices", mesh.VertexCount())

	return mesh, nil
}

// nudgedNormal retries the normal slightly toward the domain center.
func (s *NURBSSurface) nudgedNormal(u, v float64) vec3.T {
	du := 1e-3 * (s.trimU1 - s.trimU0)
	dv := 1e-3 * (s.trimV1 - s.trimV0)
	if u > (s.trimU0+s.trimU1)/2 {
		du = -du
	}
	if v > (s.trimV0+s.trimV1)/2 {
		dv = -dv
	}
	n, err := s.Normal(u+du, v+dv)
	if err != nil {
		return vec3.UnitZ
	}
	return n
}

// BoundingBox returns the control-point bounding box, which contains
// the surface by the convex hull property.
func (s *NURBSSurface) BoundingBox() BBox {
	s.bboxMu.Lock()
	defer s.bboxMu.Unlock()

	if s.bbox == nil {
		var box BBox
		for _, row := range s.controlPoints {
			for i := range row {
				pt := row[i].Dehomogenized()
				box.Add(&pt)
			}
		}
		s.bbox = &box
	}
	return *s.bbox
}

func (s *NURBSSurface) isSurface() {}

// refineKnotVector inserts the sorted knots into a single control
// row, algorithm A5.4. Returns the refined row and knot vector.
func refineKnotVector(degree int, ctrl []internal.HomoPoint, knots internal.KnotVec, insert []float64) ([]internal.HomoPoint, internal.KnotVec) {
	if len(insert) == 0 {
		return append([]internal.HomoPoint(nil), ctrl...), knots.Clone()
	}

	n := len(ctrl) - 1
	m := n + degree + 1
	r := len(insert) - 1
	a := knots.Span(degree, insert[0])
	b := knots.Span(degree, insert[r]) + 1

	qw := make([]internal.HomoPoint, n+r+2)
	newKnots := make(internal.KnotVec, m+r+2)

	for i := 0; i <= a-degree; i++ {
		qw[i] = ctrl[i]
	}
	for i := b - 1; i <= n; i++ {
		qw[i+r+1] = ctrl[i]
	}
	for i := 0; i <= a; i++ {
		newKnots[i] = knots[i]
	}
	for i := b + degree; i <= m; i++ {
		newKnots[i+r+1] = knots[i]
	}

	i := b + degree - 1
	k := b + degree + r
	for j := r; j >= 0; j-- {
		for insert[j] <= knots[i] && i > a {
			qw[k-degree-1] = ctrl[i-degree-1]
			newKnots[k] = knots[i]
			k--
			i--
		}

		qw[k-degree-1] = qw[k-degree]

		for l := 1; l <= degree; l++ {
			ind := k - degree + l
			alfa := newKnots[k+l] - insert[j]
			if math.Abs(alfa) < internal.Epsilon {
				qw[ind-1] = qw[ind]
			} else {
				alfa /= newKnots[k+l] - knots[i-degree+l]
				qw[ind-1] = internal.HomoInterpolated(&qw[ind], &qw[ind-1], alfa)
			}
		}

		newKnots[k] = insert[j]
		k--
	}

	return qw, newKnots
}

func transposeGrid(grid [][]internal.HomoPoint) [][]internal.HomoPoint {
	out := make([][]internal.HomoPoint, len(grid[0]))
	for j := range out {
		out[j] = make([]internal.HomoPoint, len(grid))
		for i := range grid {
			out[j][i] = grid[i][j]
		}
	}
	return out
}
