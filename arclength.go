package tessera

// 16-point Gauss-Legendre abscissae and weights on [-1, 1], positive
// half; the rule is symmetric.
var gaussX = [8]float64{
	0.0950125098376374,
	0.2816035507792589,
	0.4580167776572274,
	0.6178762444026438,
	0.7554044083550030,
	0.8656312023878318,
	0.9445750230732326,
	0.9894009349916499,
}

var gaussW = [8]float64{
	0.1894506104550685,
	0.1826034150449236,
	0.1691565193950025,
	0.1495959888165767,
	0.1246289712555339,
	0.0951585116824928,
	0.0622535239386479,
	0.0271524594117541,
}

// gaussLength integrates |C'(t)| over [a, b] with 16-point
// Gauss-Legendre quadrature. Evaluation errors cannot occur for
// parameters inside the curve domain, so they contribute zero.
func gaussLength(c Curve, a, b float64) float64 {
	half := (b - a) / 2
	mid := (a + b) / 2

	sum := 0.0
	for i := range gaussX {
		for _, sign := range [2]float64{1, -1} {
			t := mid + sign*half*gaussX[i]
			res, err := c.Evaluate(t, 1)
			if err != nil {
				continue
			}
			sum += gaussW[i] * res.Derivatives[0].Length()
		}
	}
	return sum * half
}
