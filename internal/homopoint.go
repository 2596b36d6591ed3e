package internal

import "github.com/ungerik/go3d/float64/vec3"

// HomoPoint is a control point in homogeneous coordinates, stored as
// (w*p, w). Rational evaluation accumulates weighted sums in this form
// and divides through by W once at the end.
type HomoPoint struct {
	Vec3 vec3.T
	W    float64
}

func Homogenized(pt vec3.T, w float64) HomoPoint {
	return HomoPoint{pt.Scaled(w), w}
}

func (hp *HomoPoint) Add(pt *HomoPoint) *HomoPoint {
	hp.Vec3.Add(&pt.Vec3)
	hp.W += pt.W
	return hp
}

func (hp *HomoPoint) Scale(s float64) *HomoPoint {
	hp.Vec3.Scale(s)
	hp.W *= s
	return hp
}

// Dehomogenized projects the point back to Euclidean space. The caller
// is responsible for guarding against a near-zero weight.
func (hp *HomoPoint) Dehomogenized() vec3.T {
	return hp.Vec3.Scaled(1 / hp.W)
}

// HomoInterpolated linearly interpolates two homogeneous points.
func HomoInterpolated(a, b *HomoPoint, t float64) HomoPoint {
	return HomoPoint{
		vec3.Interpolate(&a.Vec3, &b.Vec3, t),
		(1-t)*a.W + t*b.W,
	}
}

// Homogenize1d lifts a row of control points and parallel weights into
// homogeneous form. A nil weight slice means uniform unit weights.
func Homogenize1d(pts []vec3.T, weights []float64) []HomoPoint {
	homo := make([]HomoPoint, len(pts))
	for i, pt := range pts {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		homo[i] = Homogenized(pt, w)
	}
	return homo
}

// Homogenize2d lifts a grid of control points and parallel weights.
func Homogenize2d(pts [][]vec3.T, weights [][]float64) [][]HomoPoint {
	homo := make([][]HomoPoint, len(pts))
	for i := range homo {
		if weights != nil {
			homo[i] = Homogenize1d(pts[i], weights[i])
		} else {
			homo[i] = Homogenize1d(pts[i], nil)
		}
	}
	return homo
}

func Dehomogenize1d(homo []HomoPoint) []vec3.T {
	pts := make([]vec3.T, len(homo))
	for i := range homo {
		pts[i] = homo[i].Dehomogenized()
	}
	return pts
}

func Dehomogenize2d(homo [][]HomoPoint) [][]vec3.T {
	pts := make([][]vec3.T, len(homo))
	for i := range pts {
		pts[i] = Dehomogenize1d(homo[i])
	}
	return pts
}

func Weight1d(homo []HomoPoint) []float64 {
	weights := make([]float64, len(homo))
	for i := range weights {
		weights[i] = homo[i].W
	}
	return weights
}

func Weight2d(homo [][]HomoPoint) [][]float64 {
	weights := make([][]float64, len(homo))
	for i := range weights {
		weights[i] = Weight1d(homo[i])
	}
	return weights
}
