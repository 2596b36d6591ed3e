package internal

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func TestBernsteinWeightsPartitionOfUnity(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		for _, u := range []float64{0, 0.1, 0.5, 0.9, 1} {
			w := BernsteinWeights(n, u)
			if len(w) != n+1 {
				t.Fatalf("degree %d: got %d weights", n, len(w))
			}
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			diff(t, 1.0, sum, cmpopts.EquateApprox(0, 1e-12))
		}
	}
}

func TestBernsteinWeightsEndpoints(t *testing.T) {
	w := BernsteinWeights(3, 0)
	diff(t, []float64{1, 0, 0, 0}, w)
	w = BernsteinWeights(3, 1)
	diff(t, []float64{0, 0, 0, 1}, w)
}

func TestBernsteinWeightsQuadratic(t *testing.T) {
	// (1-u)^2, 2u(1-u), u^2 at u = 0.5
	w := BernsteinWeights(2, 0.5)
	diff(t, []float64{0.25, 0.5, 0.25}, w, cmpopts.EquateApprox(0, 1e-12))
}

var clampedCubic = KnotVec{0, 0, 0, 0, 0.3, 0.7, 1, 1, 1, 1}

func TestSpan(t *testing.T) {
	for _, tc := range []struct {
		u    float64
		want int
	}{
		{0, 3},
		{0.1, 3},
		{0.3, 4},
		{0.5, 4},
		{0.7, 5},
		{0.99, 5},
		{1, 5},
	} {
		diff(t, tc.want, clampedCubic.Span(3, tc.u))
	}
}

func TestBasisFunctionsPartitionOfUnity(t *testing.T) {
	for _, u := range []float64{0, 0.15, 0.3, 0.5, 0.85, 1} {
		span := clampedCubic.Span(3, u)
		vals := BasisFunctions(span, u, 3, clampedCubic)
		sum := 0.0
		for _, v := range vals {
			if v < -1e-12 {
				t.Errorf("u=%v: negative basis value %v", u, v)
			}
			sum += v
		}
		diff(t, 1.0, sum, cmpopts.EquateApprox(0, 1e-12))
	}
}

func TestDerivativeBasisFunctionsMatchValues(t *testing.T) {
	u := 0.45
	span := clampedCubic.Span(3, u)
	ders := DerivativeBasisFunctions(span, u, 3, 2, clampedCubic)
	vals := BasisFunctions(span, u, 3, clampedCubic)
	diff(t, vals, ders[0], cmpopts.EquateApprox(0, 1e-12))
}

func TestDerivativeBasisFunctionsCentralDifference(t *testing.T) {
	const h = 1e-6
	for _, u := range []float64{0.2, 0.45, 0.8} {
		span := clampedCubic.Span(3, u)
		ders := DerivativeBasisFunctions(span, u, 3, 1, clampedCubic)

		lo := BasisFunctions(clampedCubic.Span(3, u-h), u-h, 3, clampedCubic)
		hi := BasisFunctions(clampedCubic.Span(3, u+h), u+h, 3, clampedCubic)
		if clampedCubic.Span(3, u-h) != span || clampedCubic.Span(3, u+h) != span {
			// stencil crosses a knot, skip
			continue
		}

		for i := range ders[1] {
			fd := (hi[i] - lo[i]) / (2 * h)
			diff(t, fd, ders[1][i], cmpopts.EquateApprox(1e-4, 1e-4))
		}
	}
}

func TestDerivativeBasisFunctionsOrderAboveDegree(t *testing.T) {
	u := 0.5
	span := clampedCubic.Span(3, u)
	ders := DerivativeBasisFunctions(span, u, 3, 5, clampedCubic)
	if len(ders) != 6 {
		t.Fatalf("got %d rows", len(ders))
	}
	diff(t, []float64{0, 0, 0, 0}, ders[4])
	diff(t, []float64{0, 0, 0, 0}, ders[5])
}

func TestHermiteWeightsInterpolation(t *testing.T) {
	w0 := HermiteWeights(0)
	diff(t, [4]float64{1, 0, 0, 0}, w0[0], cmpopts.EquateApprox(0, 1e-12))
	diff(t, [4]float64{0, 1, 0, 0}, w0[1], cmpopts.EquateApprox(0, 1e-12))

	w1 := HermiteWeights(1)
	diff(t, [4]float64{0, 0, 1, 0}, w1[0], cmpopts.EquateApprox(0, 1e-12))
	diff(t, [4]float64{0, 0, 0, 1}, w1[1], cmpopts.EquateApprox(0, 1e-12))
}

func TestUniformBSplineWeightsPartitionOfUnity(t *testing.T) {
	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		rows := UniformBSplineWeights(u)
		sum := 0.0
		for _, v := range rows[0] {
			sum += v
		}
		diff(t, 1.0, sum, cmpopts.EquateApprox(0, 1e-12))

		dsum := 0.0
		for _, v := range rows[1] {
			dsum += v
		}
		diff(t, 0.0, dsum, cmpopts.EquateApprox(0, 1e-12))
	}
}

func TestBinomial(t *testing.T) {
	diff(t, 1.0, Binomial(0, 0))
	diff(t, 3.0, Binomial(3, 1))
	diff(t, 6.0, Binomial(4, 2))
	diff(t, 252.0, Binomial(10, 5))
	diff(t, 0.0, Binomial(3, 5))
}

func TestKnotVecMultiplicities(t *testing.T) {
	got := clampedCubic.Multiplicities()
	want := []KnotMultiplicity{{0, 4}, {0.3, 1}, {0.7, 1}, {1, 4}}
	diff(t, want, got)
}

func TestKnotVecIsClamped(t *testing.T) {
	if !clampedCubic.IsClamped(3) {
		t.Error("clamped cubic vector not recognized")
	}
	if KnotVec([]float64{0, 0, 0.5, 1, 1}).IsClamped(3) {
		t.Error("short vector accepted")
	}
	if KnotVec([]float64{0, 0, 0, 0, 0.7, 0.3, 1, 1, 1, 1}).IsClamped(3) {
		t.Error("decreasing vector accepted")
	}
}

func TestHomoInterpolated(t *testing.T) {
	a := Homogenized([3]float64{0, 0, 0}, 1)
	b := Homogenized([3]float64{2, 4, 6}, 3)
	mid := HomoInterpolated(&a, &b, 0.5)
	diff(t, 2.0, mid.W)
	diff(t, [3]float64{3, 6, 9}, [3]float64(mid.Vec3), cmpopts.EquateApprox(0, 1e-12))
}

func TestDehomogenized(t *testing.T) {
	p := Homogenized([3]float64{1, 2, 3}, 2)
	got := p.Dehomogenized()
	diff(t, [3]float64{1, 2, 3}, [3]float64(got), cmpopts.EquateApprox(0, 1e-12))
	if math.Abs(p.W-2) > 1e-15 {
		t.Error("weight mutated")
	}
}
