package internal

import "math"

// KnotVec is a non-decreasing sequence of parameter values defining
// where basis functions blend in a B-spline or NURBS entity.
type KnotVec []float64

func (kv KnotVec) Clone() KnotVec {
	return append(KnotVec(nil), kv...)
}

// Domain returns the parameter range covered by the knot vector.
func (kv KnotVec) Domain() (min, max float64) {
	return kv[0], kv[len(kv)-1]
}

// Span locates the knot span containing u.
// Corresponds to algorithm 2.1 from The NURBS Book (Piegl & Tiller,
// 2nd edition): binary search over the interior knots, clamped at the
// ends of the domain.
func (kv KnotVec) Span(degree int, u float64) int {
	n := len(kv) - degree - 2

	if u >= kv[n+1] {
		return n
	}
	if u < kv[degree] {
		return degree
	}

	low, high := degree, n+1
	mid := (low + high) / 2
	for u < kv[mid] || u >= kv[mid+1] {
		if u < kv[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}

	return mid
}

// KnotMultiplicity pairs a distinct knot value with its multiplicity.
type KnotMultiplicity struct {
	Knot float64
	Mult int
}

// Multiplicities returns each distinct knot value with the number of
// times it repeats.
func (kv KnotVec) Multiplicities() []KnotMultiplicity {
	mults := []KnotMultiplicity{{kv[0], 0}}

	cur := 0
	for _, knot := range kv {
		if math.Abs(knot-mults[cur].Knot) > Epsilon {
			mults = append(mults, KnotMultiplicity{knot, 0})
			cur++
		}
		mults[cur].Mult++
	}

	return mults
}

// IsNonDecreasing reports whether the vector is monotonic within
// Epsilon.
func (kv KnotVec) IsNonDecreasing() bool {
	if len(kv) == 0 {
		return false
	}
	prev := kv[0]
	for _, knot := range kv[1:] {
		if knot < prev-Epsilon {
			return false
		}
		prev = knot
	}
	return true
}

// IsClamped reports whether the vector is a valid clamped knot vector
// for the given degree: degree+1 repeats at both ends, non-decreasing
// throughout.
func (kv KnotVec) IsClamped(degree int) bool {
	if len(kv) < (degree+1)*2 {
		return false
	}

	first := kv[0]
	for _, knot := range kv[:degree+1] {
		if math.Abs(knot-first) > Epsilon {
			return false
		}
	}

	last := kv[len(kv)-1]
	for _, knot := range kv[len(kv)-degree-1:] {
		if math.Abs(knot-last) > Epsilon {
			return false
		}
	}

	return kv.IsNonDecreasing()
}
