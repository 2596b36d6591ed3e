package internal

// Basis evaluators: pure functions computing blending weights for a
// parameter value. Bernstein weights serve Bezier curves, the cubic
// segment weights serve cardinal/Hermite/B-spline splines, and the
// Cox-de Boor recursion serves NURBS entities over a knot vector.

// BernsteinWeights returns all n+1 Bernstein weights
// B_{i,n}(t) = C(n,i) * t^i * (1-t)^(n-i), computed with the iterative
// triangular scheme rather than explicit powers for stability at the
// ends of the domain.
func BernsteinWeights(n int, t float64) []float64 {
	w := make([]float64, n+1)
	w[0] = 1
	s := 1 - t

	for j := 1; j <= n; j++ {
		var saved float64
		for k := 0; k < j; k++ {
			temp := w[k]
			w[k] = saved + s*temp
			saved = t * temp
		}
		w[j] = saved
	}

	return w
}

// HermiteWeights returns the cubic Hermite blending weights
// (h00, h10, h01, h11) for a local parameter u in [0,1], together with
// their first and second derivatives with respect to u. Row 0 blends
// (P0, T0, P1, T1) into a position, rows 1 and 2 into derivatives.
func HermiteWeights(u float64) [3][4]float64 {
	u2 := u * u
	u3 := u2 * u

	return [3][4]float64{
		{2*u3 - 3*u2 + 1, u3 - 2*u2 + u, -2*u3 + 3*u2, u3 - u2},
		{6*u2 - 6*u, 3*u2 - 4*u + 1, -6*u2 + 6*u, 3*u2 - 2*u},
		{12*u - 6, 6*u - 4, -12*u + 6, 6*u - 2},
	}
}

// UniformBSplineWeights returns the uniform cubic B-spline blending
// weights for a local parameter u in [0,1] over four consecutive
// control points, with first and second derivative rows.
func UniformBSplineWeights(u float64) [3][4]float64 {
	u2 := u * u
	u3 := u2 * u
	s := 1 - u

	return [3][4]float64{
		{s * s * s / 6, (3*u3 - 6*u2 + 4) / 6, (-3*u3 + 3*u2 + 3*u + 1) / 6, u3 / 6},
		{-s * s / 2, (3*u2 - 4*u) / 2, (-3*u2 + 2*u + 1) / 2, u2 / 2},
		{s, 3*u - 2, 1 - 3*u, u},
	}
}

// BasisFunctions computes the degree+1 non-vanishing B-spline basis
// functions at u for the given knot span.
// Corresponds to algorithm 2.2 from The NURBS Book (Piegl & Tiller,
// 2nd edition), with the zero-denominator convention folded into a
// single guarded branch.
func BasisFunctions(span int, u float64, degree int, knots KnotVec) []float64 {
	basis := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	basis[0] = 1

	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64

		for r := 0; r < j; r++ {
			// zero denominator contributes zero (standard convention)
			var temp float64
			if denom := right[r+1] + left[j-r]; denom > Epsilon || denom < -Epsilon {
				temp = basis[r] / denom
			}
			basis[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}

		basis[j] = saved
	}

	return basis
}

// DerivativeBasisFunctions computes the non-vanishing basis functions
// and their derivatives up to numDerivs at u. Row k of the result
// holds the k-th derivatives; row 0 holds the basis values themselves.
// Corresponds to algorithm 2.3 from The NURBS Book (Piegl & Tiller,
// 2nd edition).
func DerivativeBasisFunctions(span int, u float64, degree, numDerivs int, knots KnotVec) [][]float64 {
	ndu := zeros2d(degree+1, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	ndu[0][0] = 1

	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64

		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]

			var temp float64
			if d := ndu[j][r]; d > Epsilon || d < -Epsilon {
				temp = ndu[r][j-1] / d
			}
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	ders := zeros2d(numDerivs+1, degree+1)
	for j := 0; j <= degree; j++ {
		ders[0][j] = ndu[j][degree]
	}

	// derivatives above the degree are identically zero; rows beyond
	// du stay zeroed
	du := numDerivs
	if du > degree {
		du = degree
	}

	// two alternating rows of the a-table suffice for the recursion
	a := zeros2d(2, degree+1)

	for r := 0; r <= degree; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1

		for k := 1; k <= du; k++ {
			var d float64
			rk := r - k
			pk := degree - k

			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}

			var j1, j2 int
			if rk >= -1 {
				j1 = 1
			} else {
				j1 = -rk
			}
			if r-1 <= pk {
				j2 = k - 1
			} else {
				j2 = degree - r
			}

			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}

			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}

			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	// scale by the falling factorial degree!/(degree-k)!
	acc := degree
	for k := 1; k <= du; k++ {
		for j := 0; j <= degree; j++ {
			ders[k][j] *= float64(acc)
		}
		acc *= degree - k
	}

	return ders
}

func zeros2d(n, m int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, m)
	}
	return rows
}
