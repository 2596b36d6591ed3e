package tessera

import "fmt"

// DomainError reports a parameter value outside an entity's valid
// domain. It is raised at the call that detects it and never silently
// corrected.
type DomainError struct {
	Name     string // parameter name: "t", "u" or "v"
	Value    float64
	Min, Max float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("tessera: parameter %s=%v outside domain [%v, %v]", e.Name, e.Value, e.Min, e.Max)
}

// StructuralError reports invalid control data: a weight/point count
// mismatch, a malformed or non-monotonic knot vector, or a degree
// exceeding the available control points. Constructors raise it
// eagerly rather than deferring failure to first evaluation.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "tessera: " + e.Msg
}

func structural(format string, args ...any) *StructuralError {
	return &StructuralError{Msg: fmt.Sprintf(format, args...)}
}

// DegenerateCurveError reports a rational denominator (or a
// fundamental-form denominator) below epsilon during evaluation or
// differentiation, where no safe fallback exists.
type DegenerateCurveError struct {
	U, V  float64 // parameter at which the degeneracy was detected
	Denom float64
}

func (e *DegenerateCurveError) Error() string {
	return fmt.Sprintf("tessera: degenerate evaluation at (%v, %v): denominator %v below epsilon", e.U, e.V, e.Denom)
}

// ResourceLimitError reports a segment or iteration count exceeding
// the configured maximum. The request fails fast instead of
// allocating unbounded memory.
type ResourceLimitError struct {
	Op    string
	Value int
	Limit int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("tessera: %s: requested %d exceeds limit %d", e.Op, e.Value, e.Limit)
}
