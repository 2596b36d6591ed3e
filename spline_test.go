package tessera

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ungerik/go3d/float64/vec3"
)

var crPoints = []vec3.T{
	{0, 0, 0},
	{1, 2, 0},
	{3, 3, 0},
	{4, 0, 0},
}

func mustSpline(t *testing.T, points []vec3.T, basis SplineBasis, tension float64) *Spline {
	t.Helper()
	s, err := NewSpline(points, basis, tension)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSplineValidation(t *testing.T) {
	var structErr *StructuralError

	_, err := NewSpline(crPoints[:1], BasisCatmullRom, 0.5)
	if !errors.As(err, &structErr) {
		t.Errorf("single point: got %v", err)
	}

	_, err = NewSpline(crPoints[:3], BasisBSpline, 0)
	if !errors.As(err, &structErr) {
		t.Errorf("3-point b-spline: got %v", err)
	}

	_, err = NewSpline(crPoints[:1], BasisHermite, 0.5)
	if !errors.As(err, &structErr) {
		t.Errorf("single-point hermite: got %v", err)
	}

	_, err = NewSpline(crPoints, SplineBasis(42), 0.5)
	if !errors.As(err, &structErr) {
		t.Errorf("unknown basis: got %v", err)
	}

	_, err = NewHermiteSpline(crPoints, crPoints[:2])
	if !errors.As(err, &structErr) {
		t.Errorf("tangent count mismatch: got %v", err)
	}
}

func TestHermiteDefaultsToCardinalTangents(t *testing.T) {
	hermite := mustSpline(t, crPoints, BasisHermite, 0.5)
	cardinal := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		h, err := hermite.Evaluate(u, 1)
		if err != nil {
			t.Fatal(err)
		}
		c, err := cardinal.Evaluate(u, 1)
		if err != nil {
			t.Fatal(err)
		}
		diff(t, c.Point, h.Point, cmpopts.EquateApprox(0, 1e-12))
		diff(t, c.Derivatives[0], h.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))
	}
}

func TestCatmullRomInterpolatesControlPoints(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	for i, want := range crPoints {
		res, err := s.Evaluate(float64(i)/3, 0)
		if err != nil {
			t.Fatal(err)
		}
		diff(t, want, res.Point, cmpopts.EquateApprox(0, 1e-12))
	}
}

func TestCatmullRomEndpointTangents(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	res, err := s.Evaluate(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 2 * tension * (P1 - P0), chain-rule scaled by the segment count
	diff(t, vec3.T{3, 6, 0}, res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))

	res, err = s.Evaluate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, vec3.T{3, -9, 0}, res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))
}

func TestCatmullRomStraightLineIsLinear(t *testing.T) {
	line := []vec3.T{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	s := mustSpline(t, line, BasisCatmullRom, 0.5)

	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		res, err := s.Evaluate(u, 0)
		if err != nil {
			t.Fatal(err)
		}
		diff(t, vec3.T{2 * u, 0, 0}, res.Point, cmpopts.EquateApprox(0, 1e-12))
	}

	diff(t, 2.0, s.Length(), cmpopts.EquateApprox(0, 1e-9))
}

func TestHermiteSplineEndpoints(t *testing.T) {
	points := []vec3.T{{0, 0, 0}, {1, 0, 0}}
	tangents := []vec3.T{{0, 3, 0}, {0, -3, 0}}
	s, err := NewHermiteSpline(points, tangents)
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.Evaluate(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, points[0], res.Point, cmpopts.EquateApprox(0, 1e-12))
	diff(t, tangents[0], res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))

	res, err = s.Evaluate(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, points[1], res.Point, cmpopts.EquateApprox(0, 1e-12))
	diff(t, tangents[1], res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))
}

func TestBSplineStaysNearControlPolygon(t *testing.T) {
	s := mustSpline(t, crPoints, BasisBSpline, 0)

	box := BBox{}
	box.AddRange(crPoints)

	for i := 0; i <= 32; i++ {
		res, err := s.Evaluate(float64(i)/32, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !box.Contains(&res.Point, 1e-9) {
			t.Errorf("t=%v: %v escapes the control hull", float64(i)/32, res.Point)
		}
	}
}

func TestBSplineThirdDerivativeConstant(t *testing.T) {
	s := mustSpline(t, crPoints, BasisBSpline, 0)

	a, err := s.Evaluate(0.2, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Evaluate(0.8, 4)
	if err != nil {
		t.Fatal(err)
	}
	// single segment: the cubic's third derivative is constant, the
	// fourth vanishes
	diff(t, a.Derivatives[2], b.Derivatives[2], cmpopts.EquateApprox(0, 1e-9))
	diff(t, vec3.T{}, a.Derivatives[3])
}

func TestSplineDomainError(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)
	var domErr *DomainError
	_, err := s.Evaluate(1.5, 0)
	if !errors.As(err, &domErr) {
		t.Fatalf("got %v", err)
	}
}

func TestSplineTessellate(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	mesh, err := s.Tessellate(24)
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
	diff(t, 25, mesh.VertexCount())
	diff(t, 24, len(mesh.Lines))
}

func TestSplineClosestPoint(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	on, err := s.Evaluate(0.6, 0)
	if err != nil {
		t.Fatal(err)
	}
	res := s.ClosestPoint(on.Point, 64)
	diff(t, 0.6, res.T, cmpopts.EquateApprox(0, 1e-4))
	diff(t, 0.0, res.Distance, cmpopts.EquateApprox(0, 1e-6))
}

func TestSplineSweep(t *testing.T) {
	path := mustSpline(t, crPoints, BasisCatmullRom, 0.5)
	profile := mustBezier(t, []vec3.T{{-0.2, 0, 0}, {0, 0.2, 0}, {0.2, 0, 0}}, nil)

	mesh, err := path.Sweep(profile, 12)
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
	diff(t, 13*(sweepProfileSamples+1), mesh.VertexCount())
	diff(t, 12*sweepProfileSamples*2, len(mesh.Faces))
}

func TestSplineSetControlPointInvalidates(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)

	before, err := s.Evaluate(0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	boxBefore := s.BoundingBox()

	if err := s.SetControlPoint(1, vec3.T{1, 5, 0}); err != nil {
		t.Fatal(err)
	}

	after, err := s.Evaluate(0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if before.Point == after.Point {
		t.Error("evaluation unchanged after control point edit")
	}

	boxAfter := s.BoundingBox()
	if boxBefore.Max == boxAfter.Max {
		t.Error("bounding box unchanged after control point edit")
	}

	// cardinal tangents follow the moved neighbor: 2 * tension *
	// (P1 - P0), chain-rule scaled by the segment count
	res, err := s.Evaluate(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, vec3.T{3, 15, 0}, res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))

	if err := s.SetControlPoint(9, vec3.T{}); err == nil {
		t.Error("out of range index accepted")
	}
}

func TestSplineSetTangent(t *testing.T) {
	s := mustSpline(t, crPoints, BasisHermite, 0.5)

	if err := s.SetTangent(0, vec3.T{0, 9, 0}); err != nil {
		t.Fatal(err)
	}
	res, err := s.Evaluate(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, vec3.T{0, 27, 0}, res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))

	// an explicit tangent survives later control point edits
	if err := s.SetControlPoint(1, vec3.T{2, 2, 0}); err != nil {
		t.Fatal(err)
	}
	res, err = s.Evaluate(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, vec3.T{0, 27, 0}, res.Derivatives[0], cmpopts.EquateApprox(0, 1e-12))

	cr := mustSpline(t, crPoints, BasisCatmullRom, 0.5)
	if err := cr.SetTangent(0, vec3.T{}); err == nil {
		t.Error("catmull-rom tangent edit accepted")
	}
	if err := s.SetTangent(-1, vec3.T{}); err == nil {
		t.Error("out of range index accepted")
	}
}

func TestSplineBoundingBoxContainsCurve(t *testing.T) {
	s := mustSpline(t, crPoints, BasisCatmullRom, 0.5)
	box := s.BoundingBox()

	for i := 0; i <= 64; i++ {
		res, err := s.Evaluate(float64(i)/64, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !box.Contains(&res.Point, 1e-9) {
			t.Errorf("t=%v: %v escapes the bounding box", float64(i)/64, res.Point)
		}
	}
}
