package tessera

// Resource limits bounding worst-case cost of tessellation and
// iterative queries. They are package-wide knobs: adjust them before
// spawning work, not concurrently with it.
var (
	// MaxTessellationSegments caps the per-axis segment count accepted
	// by Tessellate. Requests above it fail with *ResourceLimitError.
	MaxTessellationSegments = 1 << 14

	// MaxNewtonIterations caps the iteration count of closest-point
	// queries. Larger requests are clamped, not rejected: closest-point
	// queries never fail, they return the best point found.
	MaxNewtonIterations = 128

	// MaxAdaptiveDepth bounds recursion of curvature-adaptive surface
	// tessellation.
	MaxAdaptiveDepth = 8
)

func checkSegments(op string, segments, min int) error {
	if segments < min {
		return structural("%s: segment count %d below minimum %d", op, segments, min)
	}
	if segments > MaxTessellationSegments {
		return &ResourceLimitError{Op: op, Value: segments, Limit: MaxTessellationSegments}
	}
	return nil
}
