package tessera

import (
	"math"

	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// SurfaceFunc maps (u, v) parameters to a point in space. Functions
// passed to NewParametricSurface must be pure: evaluation results are
// memoized per surface instance.
type SurfaceFunc func(u, v float64) vec3.T

// ParametricSurface wraps an arbitrary position function over a
// rectangular domain. Derivatives come from central differences, so
// they are approximate; orders above 2 are not supported.
type ParametricSurface struct {
	fn             SurfaceFunc
	u0, u1, v0, v1 float64
	hu, hv         float64 // finite-difference steps

	cache evalCache
}

// NewParametricSurface builds a surface from fn over
// [u0, u1] x [v0, v1]. Both extents must be finite and positive.
func NewParametricSurface(fn SurfaceFunc, u0, u1, v0, v1 float64) (*ParametricSurface, error) {
	if fn == nil {
		return nil, structural("parametric: nil surface function")
	}
	for _, b := range [4]float64{u0, u1, v0, v1} {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, structural("parametric: non-finite domain bound %v", b)
		}
	}
	if u1 <= u0 || v1 <= v0 {
		return nil, structural("parametric: empty domain [%v, %v] x [%v, %v]", u0, u1, v0, v1)
	}

	return &ParametricSurface{
		fn: fn,
		u0: u0, u1: u1, v0: v0, v1: v1,
		hu: 1e-4 * (u1 - u0),
		hv: 1e-4 * (v1 - v0),
	}, nil
}

func (s *ParametricSurface) Domain() (u0, u1, v0, v1 float64) {
	return s.u0, s.u1, s.v0, s.v1
}

func (s *ParametricSurface) checkDomain(u, v float64) error {
	if u < s.u0 || u > s.u1 {
		return &DomainError{Name: "u", Value: u, Min: s.u0, Max: s.u1}
	}
	if v < s.v0 || v > s.v1 {
		return &DomainError{Name: "v", Value: v, Min: s.v0, Max: s.v1}
	}
	return nil
}

// Evaluate returns the position at (u, v).
func (s *ParametricSurface) Evaluate(u, v float64) (vec3.T, error) {
	if err := s.checkDomain(u, v); err != nil {
		return vec3.T{}, err
	}
	return s.fn(u, v), nil
}

// Derivatives approximates partials up to order 2 with central
// differences. Stencils that would leave the domain are shifted
// inward, trading a little accuracy at the edges for validity.
func (s *ParametricSurface) Derivatives(u, v float64, order int) ([][]vec3.T, error) {
	if err := s.checkDomain(u, v); err != nil {
		return nil, err
	}
	if order < 0 || order > 2 {
		return nil, structural("parametric: derivative order %d out of range [0, 2]", order)
	}

	key := evalKey{u: u, v: v, order: order}
	if res, ok := s.cache.get(key); ok {
		return unpackDerivs(res, order), nil
	}

	grid := make([][]vec3.T, order+1)
	for i := range grid {
		grid[i] = make([]vec3.T, order+1-i)
	}
	grid[0][0] = s.fn(u, v)

	if order >= 1 {
		// shift second-order stencil centers inward so u±h stays valid
		uc := clampf(u, s.u0+s.hu, s.u1-s.hu)
		vc := clampf(v, s.v0+s.hv, s.v1-s.hv)

		grid[1][0] = s.centralU(u, v)
		grid[0][1] = s.centralV(u, v)

		if order >= 2 {
			pu := s.fn(uc+s.hu, vc)
			mu := s.fn(uc-s.hu, vc)
			pv := s.fn(uc, vc+s.hv)
			mv := s.fn(uc, vc-s.hv)
			c := s.fn(uc, vc)

			grid[2][0] = secondDiff(&pu, &c, &mu, s.hu*s.hu)
			grid[0][2] = secondDiff(&pv, &c, &mv, s.hv*s.hv)

			pp := s.fn(uc+s.hu, vc+s.hv)
			pm := s.fn(uc+s.hu, vc-s.hv)
			mp := s.fn(uc-s.hu, vc+s.hv)
			mm := s.fn(uc-s.hu, vc-s.hv)
			mixed := vec3.Sub(&pp, &pm)
			mixed.Sub(&mp)
			mixed.Add(&mm)
			grid[1][1] = mixed.Scaled(1 / (4 * s.hu * s.hv))
		}
	}

	s.cache.put(key, packDerivs(grid))
	return grid, nil
}

func (s *ParametricSurface) centralU(u, v float64) vec3.T {
	ua := math.Max(s.u0, u-s.hu)
	ub := math.Min(s.u1, u+s.hu)
	a := s.fn(ua, v)
	b := s.fn(ub, v)
	d := vec3.Sub(&b, &a)
	return d.Scaled(1 / (ub - ua))
}

func (s *ParametricSurface) centralV(u, v float64) vec3.T {
	va := math.Max(s.v0, v-s.hv)
	vb := math.Min(s.v1, v+s.hv)
	a := s.fn(u, va)
	b := s.fn(u, vb)
	d := vec3.Sub(&b, &a)
	return d.Scaled(1 / (vb - va))
}

func secondDiff(plus, center, minus *vec3.T, h2 float64) vec3.T {
	d := *plus
	c2 := center.Scaled(2)
	d.Sub(&c2)
	d.Add(minus)
	return d.Scaled(1 / h2)
}

func clampf(x, lo, hi float64) float64 {
	if lo > hi {
		// degenerate when the step exceeds half the domain
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, x))
}

// Normal returns the unit normal cross(Su, Sv). A vanishing cross
// product yields a DegenerateCurveError.
func (s *ParametricSurface) Normal(u, v float64) (vec3.T, error) {
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

// Curvatures returns the Gaussian curvature K and mean curvature H at
// (u, v), from the first and second fundamental forms. A degenerate
// metric (EG - F^2 near zero) yields a DegenerateCurveError.
func (s *ParametricSurface) Curvatures(u, v float64) (gaussian, mean float64, err error) {
	grid, err := s.Derivatives(u, v, 2)
	if err != nil {
		return 0, 0, err
	}
	su, sv := grid[1][0], grid[0][1]
	suu, svv, suv := grid[2][0], grid[0][2], grid[1][1]

	e := vec3.Dot(&su, &su)
	f := vec3.Dot(&su, &sv)
	g := vec3.Dot(&sv, &sv)

	det := e*g - f*f
	if math.Abs(det) < internal.Epsilon {
		return 0, 0, &DegenerateCurveError{U: u, V: v, Denom: det}
	}

	n := vec3.Cross(&su, &sv)
	n.Normalize()

	l := vec3.Dot(&suu, &n)
	m := vec3.Dot(&suv, &n)
	nn := vec3.Dot(&svv, &n)

	gaussian = (l*nn - m*m) / det
	mean = (e*nn - 2*f*m + g*l) / (2 * det)
	return gaussian, mean, nil
}

// Tessellate samples a regular grid and triangulates it. A vertex
// with a degenerate normal (poles of a sphere, for instance) borrows
// the normal of the nearest valid neighbor sample.
func (s *ParametricSurface) Tessellate(uSegments, vSegments int) (*Mesh, error) {
	if err := checkSegments("parametric tessellate", uSegments, 1); err != nil {
		return nil, err
	}
	if err := checkSegments("parametric tessellate", vSegments, 1); err != nil {
		return nil, err
	}

	mesh := newMesh()
	warned := false

	for j := 0; j <= vSegments; j++ {
		fv := float64(j) / float64(vSegments)
		v := s.v0 + fv*(s.v1-s.v0)
		for i := 0; i <= uSegments; i++ {
			fu := float64(i) / float64(uSegments)
			u := s.u0 + fu*(s.u1-s.u0)

			pt := s.fn(u, v)
			n, err := s.Normal(u, v)
			if err != nil {
				n, err = s.neighborNormal(u, v)
				if err != nil {
					n = vec3.UnitZ
				}
				if !warned {
					Logger().Warn("degenerate surface normal during tessellation", "u", u, "v", v)
					warned = true
				}
			}

			mesh.addVertex(&pt, &n, vec2.T{fu, fv})
		}
	}

	ring := uSegments + 1
	for j := 0; j < vSegments; j++ {
		for i := 0; i < uSegments; i++ {
			a := j*ring + i
			mesh.addQuad(a, a+1, a+1+ring, a+ring)
		}
	}

	Logger().Debug("tessellated parametric surface", "uSegments", uSegments, "vSegments", vSegments, "vertices", mesh.VertexCount())

	return mesh, nil
}

// neighborNormal retries the normal slightly inside the domain.
func (s *ParametricSurface) neighborNormal(u, v float64) (vec3.T, error) {
	du := 1e-3 * (s.u1 - s.u0)
	dv := 1e-3 * (s.v1 - s.v0)
	un := clampf(u+du, s.u0, s.u1)
	if u > (s.u0+s.u1)/2 {
		un = clampf(u-du, s.u0, s.u1)
	}
	vn := clampf(v+dv, s.v0, s.v1)
	if v > (s.v0+s.v1)/2 {
		vn = clampf(v-dv, s.v0, s.v1)
	}
	return s.Normal(un, vn)
}

// TessellateAdaptive starts from a regular grid and splits cells
// whose corner normals disagree by more than threshold (one minus the
// smallest pairwise dot product of unit normals). Recursion stops at
// MaxAdaptiveDepth. Cell corners are shared, but midpoints on the
// boundary between a split and an unsplit cell are not; the result
// approximates curvature-adaptive sampling rather than producing a
// watertight mesh.
func (s *ParametricSurface) TessellateAdaptive(uSegments, vSegments int, threshold float64) (*Mesh, error) {
	if err := checkSegments("parametric tessellate adaptive", uSegments, 1); err != nil {
		return nil, err
	}
	if err := checkSegments("parametric tessellate adaptive", vSegments, 1); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		return nil, structural("parametric: adaptive threshold %v must be positive", threshold)
	}

	mesh := newMesh()
	seen := make(map[vec2.T]int)

	for j := 0; j < vSegments; j++ {
		va := s.v0 + float64(j)/float64(vSegments)*(s.v1-s.v0)
		vb := s.v0 + float64(j+1)/float64(vSegments)*(s.v1-s.v0)
		for i := 0; i < uSegments; i++ {
			ua := s.u0 + float64(i)/float64(uSegments)*(s.u1-s.u0)
			ub := s.u0 + float64(i+1)/float64(uSegments)*(s.u1-s.u0)
			s.adaptiveCell(mesh, seen, ua, ub, va, vb, threshold, 0)
		}
	}

	Logger().Debug("adaptively tessellated parametric surface", "vertices", mesh.VertexCount(), "faces", len(mesh.Faces))

	return mesh, nil
}

func (s *ParametricSurface) adaptiveCell(mesh *Mesh, seen map[vec2.T]int, ua, ub, va, vb, threshold float64, depth int) {
	if depth < MaxAdaptiveDepth && s.cellNeedsSplit(ua, ub, va, vb, threshold) {
		um := (ua + ub) / 2
		vm := (va + vb) / 2
		s.adaptiveCell(mesh, seen, ua, um, va, vm, threshold, depth+1)
		s.adaptiveCell(mesh, seen, um, ub, va, vm, threshold, depth+1)
		s.adaptiveCell(mesh, seen, ua, um, vm, vb, threshold, depth+1)
		s.adaptiveCell(mesh, seen, um, ub, vm, vb, threshold, depth+1)
		return
	}

	a := s.adaptiveVertex(mesh, seen, ua, va)
	b := s.adaptiveVertex(mesh, seen, ub, va)
	c := s.adaptiveVertex(mesh, seen, ub, vb)
	d := s.adaptiveVertex(mesh, seen, ua, vb)
	mesh.addQuad(a, b, c, d)
}

func (s *ParametricSurface) cellNeedsSplit(ua, ub, va, vb, threshold float64) bool {
	corners := [4][2]float64{{ua, va}, {ub, va}, {ub, vb}, {ua, vb}}
	normals := make([]vec3.T, 0, 4)
	for _, c := range corners {
		n, err := s.Normal(c[0], c[1])
		if err != nil {
			// a degenerate corner is curvature enough
			return true
		}
		normals = append(normals, n)
	}
	for i := 0; i < len(normals); i++ {
		for j := i + 1; j < len(normals); j++ {
			if 1-vec3.Dot(&normals[i], &normals[j]) > threshold {
				return true
			}
		}
	}
	return false
}

func (s *ParametricSurface) adaptiveVertex(mesh *Mesh, seen map[vec2.T]int, u, v float64) int {
	key := vec2.T{u, v}
	if idx, ok := seen[key]; ok {
		return idx
	}

	pt := s.fn(u, v)
	n, err := s.Normal(u, v)
	if err != nil {
		n, err = s.neighborNormal(u, v)
		if err != nil {
			n = vec3.UnitZ
		}
	}

	uv := vec2.T{(u - s.u0) / (s.u1 - s.u0), (v - s.v0) / (s.v1 - s.v0)}
	idx := mesh.addVertex(&pt, &n, uv)
	seen[key] = idx
	return idx
}

func (s *ParametricSurface) isSurface() {}
