package tessera

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// NewPlane builds a degree 1x1 surface spanning the parallelogram
// with the given origin and edge vectors. The axes must not be
// parallel.
func NewPlane(origin, uAxis, vAxis vec3.T) (*NURBSSurface, error) {
	cross := vec3.Cross(&uAxis, &vAxis)
	if cross.LengthSqr() < internal.Epsilon {
		return nil, structural("plane: axes are parallel or zero")
	}

	uEnd := vec3.Add(&origin, &uAxis)
	vEnd := vec3.Add(&origin, &vAxis)
	far := vec3.Add(&uEnd, &vAxis)

	points := [][]vec3.T{
		{origin, vEnd},
		{uEnd, far},
	}
	knots := []float64{0, 0, 1, 1}

	return NewNURBSSurface(1, 1, points, nil, knots, knots)
}

// fullCircleKnots is the clamped quadratic knot vector of a rational
// circle built from four 90-degree arcs.
var fullCircleKnots = []float64{0, 0, 0, 0.25, 0.25, 0.5, 0.5, 0.75, 0.75, 1, 1, 1}

// fullCircleXY returns the nine control points and weights of a unit
// circle in a 2d plane. Odd-indexed points sit on the circumscribed
// square, weighted by cos(45 degrees).
func fullCircleXY() (pts [9][2]float64, weights [9]float64) {
	pts = [9][2]float64{
		{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0},
	}
	w := math.Sqrt2 / 2
	weights = [9]float64{1, w, 1, w, 1, w, 1, w, 1}
	return pts, weights
}

// revolveProfile revolves a planar rational profile, given as (radius
// from the y axis, height) pairs, through a full turn around the y
// axis. The result has angular parameter u and profile parameter v.
func revolveProfile(profile [][2]float64, profWeights, profKnots []float64, profDegree int, center vec3.T) (*NURBSSurface, error) {
	circle, circleW := fullCircleXY()

	points := make([][]vec3.T, len(circle))
	weights := make([][]float64, len(circle))
	for j := range circle {
		points[j] = make([]vec3.T, len(profile))
		weights[j] = make([]float64, len(profile))
		for i, p := range profile {
			points[j][i] = vec3.T{
				center[0] + p[0]*circle[j][0],
				center[1] + p[1],
				center[2] + p[0]*circle[j][1],
			}
			weights[j][i] = circleW[j] * profWeights[i]
		}
	}

	return NewNURBSSurface(2, profDegree, points, weights, fullCircleKnots, profKnots)
}

// NewSphere builds a rational quadratic sphere by revolving a
// semicircular profile around the vertical axis through center. The u
// direction runs around the equator, v from the south pole to the
// north pole.
func NewSphere(center vec3.T, radius float64) (*NURBSSurface, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, structural("sphere: radius %v must be finite and positive", radius)
	}

	r := radius
	w := math.Sqrt2 / 2
	profile := [][2]float64{{0, -r}, {r, -r}, {r, 0}, {r, r}, {0, r}}
	profWeights := []float64{1, w, 1, w, 1}
	profKnots := []float64{0, 0, 0, 0.5, 0.5, 1, 1, 1}

	return revolveProfile(profile, profWeights, profKnots, 2, center)
}

// NewTorus builds a rational quadratic torus by revolving a full
// minor circle at the major radius around the vertical axis through
// center. Requires 0 < minorRadius < majorRadius so the surface does
// not self-intersect.
func NewTorus(center vec3.T, majorRadius, minorRadius float64) (*NURBSSurface, error) {
	if math.IsNaN(majorRadius) || math.IsInf(majorRadius, 0) || majorRadius <= 0 {
		return nil, structural("torus: major radius %v must be finite and positive", majorRadius)
	}
	if math.IsNaN(minorRadius) || math.IsInf(minorRadius, 0) || minorRadius <= 0 {
		return nil, structural("torus: minor radius %v must be finite and positive", minorRadius)
	}
	if minorRadius >= majorRadius {
		return nil, structural("torus: minor radius %v must be smaller than major radius %v", minorRadius, majorRadius)
	}

	minor, minorW := fullCircleXY()
	profile := make([][2]float64, len(minor))
	profWeights := make([]float64, len(minor))
	for k, p := range minor {
		profile[k] = [2]float64{majorRadius + minorRadius*p[0], minorRadius * p[1]}
		profWeights[k] = minorW[k]
	}

	return revolveProfile(profile, profWeights, fullCircleKnots, 2, center)
}
