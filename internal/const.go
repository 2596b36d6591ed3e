package internal

const (
	// Epsilon guards divisions and degeneracy checks: denominators,
	// weights and squared lengths below it are treated as zero.
	Epsilon = 1e-10

	// Tolerance is the convergence threshold of iterative queries.
	Tolerance = 1e-6
)
