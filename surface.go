package tessera

import "github.com/ungerik/go3d/float64/vec3"

// Surface is a parametric surface over a rectangular (u, v) domain.
//
// The concrete types are ParametricSurface and NURBSSurface; the
// variant set is closed.
type Surface interface {
	// Evaluate returns the position at (u, v). Parameters outside the
	// domain yield a DomainError.
	Evaluate(u, v float64) (vec3.T, error)

	// Derivatives returns the partial derivatives up to the requested
	// order as a triangular-ish grid: out[i][j] is the derivative
	// taken i times in u and j times in v, so out[0][0] is the
	// position, out[1][0] is Su and out[0][1] is Sv.
	Derivatives(u, v float64, order int) ([][]vec3.T, error)

	// Normal returns the unit surface normal cross(Su, Sv) at (u, v).
	Normal(u, v float64) (vec3.T, error)

	// Domain returns the parameter rectangle [u0, u1] x [v0, v1].
	Domain() (u0, u1, v0, v1 float64)

	// Tessellate samples a regular (uSegments+1) x (vSegments+1) grid
	// and returns a triangle mesh with per-vertex normals and UVs.
	Tessellate(uSegments, vSegments int) (*Mesh, error)

	isSurface()
}

// packDerivs flattens a triangular derivative grid into an
// EvaluationResult so surface evaluations share the curve memo cache.
func packDerivs(grid [][]vec3.T) EvaluationResult {
	res := EvaluationResult{Point: grid[0][0]}
	for _, row := range grid {
		res.Derivatives = append(res.Derivatives, row...)
	}
	return res
}

// unpackDerivs rebuilds the triangular grid: row i holds order+1-i
// entries.
func unpackDerivs(res EvaluationResult, order int) [][]vec3.T {
	grid := make([][]vec3.T, order+1)
	off := 0
	for i := 0; i <= order; i++ {
		n := order + 1 - i
		grid[i] = append([]vec3.T(nil), res.Derivatives[off:off+n]...)
		off += n
	}
	return grid
}
