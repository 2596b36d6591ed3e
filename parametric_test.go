package tessera

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ungerik/go3d/float64/vec3"
)

func sphereFunc(r float64) SurfaceFunc {
	return func(u, v float64) vec3.T {
		return vec3.T{
			r * math.Cos(v) * math.Cos(u),
			r * math.Sin(v),
			r * math.Cos(v) * math.Sin(u),
		}
	}
}

func mustParamSphere(t *testing.T, r float64) *ParametricSurface {
	t.Helper()
	s, err := NewParametricSurface(sphereFunc(r), 0, 2*math.Pi, -math.Pi/2, math.Pi/2)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewParametricSurfaceValidation(t *testing.T) {
	var structErr *StructuralError

	_, err := NewParametricSurface(nil, 0, 1, 0, 1)
	if !errors.As(err, &structErr) {
		t.Errorf("nil function: got %v", err)
	}

	_, err = NewParametricSurface(sphereFunc(1), 1, 0, 0, 1)
	if !errors.As(err, &structErr) {
		t.Errorf("inverted domain: got %v", err)
	}

	_, err = NewParametricSurface(sphereFunc(1), 0, math.Inf(1), 0, 1)
	if !errors.As(err, &structErr) {
		t.Errorf("infinite bound: got %v", err)
	}
}

func TestParametricEvaluate(t *testing.T) {
	s := mustParamSphere(t, 2)

	pt, err := s.Evaluate(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, vec3.T{2, 0, 0}, pt, cmpopts.EquateApprox(0, 1e-12))

	var domErr *DomainError
	_, err = s.Evaluate(-1, 0)
	if !errors.As(err, &domErr) {
		t.Fatalf("got %v", err)
	}
	_, err = s.Evaluate(0, 2)
	if !errors.As(err, &domErr) {
		t.Fatalf("got %v", err)
	}
}

func TestParametricDerivativesAgainstAnalytic(t *testing.T) {
	r := 1.5
	s := mustParamSphere(t, r)

	u, v := 0.8, 0.3
	grid, err := s.Derivatives(u, v, 1)
	if err != nil {
		t.Fatal(err)
	}

	wantSu := vec3.T{-r * math.Cos(v) * math.Sin(u), 0, r * math.Cos(v) * math.Cos(u)}
	wantSv := vec3.T{-r * math.Sin(v) * math.Cos(u), r * math.Cos(v), -r * math.Sin(v) * math.Sin(u)}
	diff(t, wantSu, grid[1][0], cmpopts.EquateApprox(1e-6, 1e-6))
	diff(t, wantSv, grid[0][1], cmpopts.EquateApprox(1e-6, 1e-6))
}

func TestParametricDerivativeOrderLimit(t *testing.T) {
	s := mustParamSphere(t, 1)
	var structErr *StructuralError
	_, err := s.Derivatives(1, 0, 3)
	if !errors.As(err, &structErr) {
		t.Fatalf("got %v", err)
	}
}

func TestParametricSphereNormalIsRadial(t *testing.T) {
	s := mustParamSphere(t, 3)

	for _, uv := range [][2]float64{{0.5, 0.2}, {2, -0.7}, {4, 1.1}} {
		n, err := s.Normal(uv[0], uv[1])
		if err != nil {
			t.Fatal(err)
		}
		pt, err := s.Evaluate(uv[0], uv[1])
		if err != nil {
			t.Fatal(err)
		}
		pt.Normalize()
		dot := math.Abs(vec3.Dot(&n, &pt))
		diff(t, 1.0, dot, cmpopts.EquateApprox(0, 1e-6))
	}
}

func TestParametricSphereCurvatures(t *testing.T) {
	r := 2.0
	s := mustParamSphere(t, r)

	gauss, mean, err := s.Curvatures(1, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 1/(r*r), gauss, cmpopts.EquateApprox(1e-3, 1e-3))
	diff(t, 1/r, math.Abs(mean), cmpopts.EquateApprox(1e-3, 1e-3))
}

func TestParametricPlaneCurvatures(t *testing.T) {
	plane, err := NewParametricSurface(func(u, v float64) vec3.T {
		return vec3.T{u, v, 0}
	}, 0, 4, 0, 4)
	if err != nil {
		t.Fatal(err)
	}

	gauss, mean, err := plane.Curvatures(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 0.0, gauss, cmpopts.EquateApprox(0, 1e-6))
	diff(t, 0.0, mean, cmpopts.EquateApprox(0, 1e-6))

	n, err := plane.Normal(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 1.0, math.Abs(n[2]), cmpopts.EquateApprox(0, 1e-9))
}

func TestParametricCurvaturesDegenerate(t *testing.T) {
	// collapses every v onto a single line, EG - F^2 = 0
	line, err := NewParametricSurface(func(u, v float64) vec3.T {
		return vec3.T{u, 0, 0}
	}, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	var degErr *DegenerateCurveError
	_, _, err = line.Curvatures(0.5, 0.5)
	if !errors.As(err, &degErr) {
		t.Fatalf("got %v", err)
	}
}

func TestParametricTessellate(t *testing.T) {
	s := mustParamSphere(t, 2)

	mesh, err := s.Tessellate(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
	diff(t, 17*9, mesh.VertexCount())
	diff(t, 16*8*2, len(mesh.Faces))

	// every vertex sits on the sphere, poles included
	for _, p := range mesh.Points {
		diff(t, 2.0, p.Length(), cmpopts.EquateApprox(0, 1e-9))
	}
}

func TestParametricTessellateAdaptive(t *testing.T) {
	plane, err := NewParametricSurface(func(u, v float64) vec3.T {
		return vec3.T{u, v, 0}
	}, 0, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	mesh, err := plane.TessellateAdaptive(4, 4, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	// flat surface never splits
	diff(t, 4*4*2, len(mesh.Faces))

	s := mustParamSphere(t, 1)
	adaptive, err := s.TessellateAdaptive(4, 4, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	uniform, err := s.Tessellate(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(adaptive.Faces) <= len(uniform.Faces) {
		t.Errorf("curved surface did not refine: %d vs %d faces", len(adaptive.Faces), len(uniform.Faces))
	}
	if err := adaptive.Validate(); err != nil {
		t.Fatal(err)
	}

	var structErr *StructuralError
	_, err = s.TessellateAdaptive(4, 4, 0)
	if !errors.As(err, &structErr) {
		t.Fatalf("zero threshold: got %v", err)
	}
}
