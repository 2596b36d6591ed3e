package tessera

import "github.com/ungerik/go3d/float64/vec3"

// BBox is an axis-aligned bounding box. The zero value is empty and
// ready to use.
type BBox struct {
	Min, Max    vec3.T
	initialized bool
}

// Add expands the box to contain point, initializing the box on first
// use. Returns the box for chaining.
func (b *BBox) Add(point *vec3.T) *BBox {
	if !b.initialized {
		b.Min = *point
		b.Max = *point
		b.initialized = true
		return b
	}

	for i, val := range point {
		if val > b.Max[i] {
			b.Max[i] = val
		}
		if val < b.Min[i] {
			b.Min[i] = val
		}
	}

	return b
}

// AddRange expands the box to contain all points.
func (b *BBox) AddRange(points []vec3.T) *BBox {
	for i := range points {
		b.Add(&points[i])
	}
	return b
}

// Contains reports whether point lies in the box expanded by tol on
// every side. An empty box contains nothing.
func (b *BBox) Contains(point *vec3.T, tol float64) bool {
	if !b.initialized {
		return false
	}
	for i, val := range point {
		if val < b.Min[i]-tol || val > b.Max[i]+tol {
			return false
		}
	}
	return true
}
