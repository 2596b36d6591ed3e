package tessera

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/tessera3d/tessera/internal"
)

// frame is a local orthonormal basis along a curve.
type frame struct {
	Tangent  vec3.T
	Normal   vec3.T
	Binormal vec3.T
}

// frameAt builds a frame from a (not necessarily unit) tangent by
// crossing against a reference axis. The reference is the world Y axis
// unless the tangent is nearly parallel to it, in which case X is used
// instead: this keeps the frame stable when the tangent is nearly
// vertical.
func frameAt(tangent *vec3.T) frame {
	t := *tangent
	if t.LengthSqr() < internal.Epsilon {
		// degenerate tangent: any frame will do
		return frame{vec3.UnitX, vec3.UnitY, vec3.UnitZ}
	}
	t.Normalize()

	ref := vec3.UnitY
	if math.Abs(vec3.Dot(&t, &ref)) > 0.99 {
		ref = vec3.UnitX
	}

	normal := vec3.Cross(&ref, &t)
	normal.Normalize()
	binormal := vec3.Cross(&t, &normal)
	binormal.Normalize()

	return frame{t, normal, binormal}
}
