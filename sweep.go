package tessera

import (
	"math"

	"github.com/ungerik/go3d/float64/mat4"
	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"
	"github.com/ungerik/go3d/float64/vec4"

	"github.com/tessera3d/tessera/internal"
)

// sweepProfileSamples is the cross-section sampling density for swept
// meshes.
const sweepProfileSamples = 24

// sweepAlong extrudes the profile curve's cross-section along the
// path curve, producing a quad-strip mesh with sections+1 rings. The
// profile is interpreted in the local frame of each path sample: its
// x axis maps to the frame normal, y to the binormal, z to the path
// tangent. A nonzero twist rotates the frame linearly around the
// tangent, reaching twist radians at the path's end.
func sweepAlong(path, profile Curve, sections int, twist float64, op string) (*Mesh, error) {
	if err := checkSegments(op, sections, 1); err != nil {
		return nil, err
	}

	profPts := make([]vec3.T, sweepProfileSamples+1)
	profTans := make([]vec3.T, sweepProfileSamples+1)
	for i := 0; i <= sweepProfileSamples; i++ {
		res, err := profile.Evaluate(float64(i)/sweepProfileSamples, 1)
		if err != nil {
			return nil, err
		}
		profPts[i] = res.Point
		profTans[i] = res.Derivatives[0]
	}

	mesh := newMesh()

	for j := 0; j <= sections; j++ {
		t := float64(j) / float64(sections)
		res, err := path.Evaluate(t, 1)
		if err != nil {
			return nil, err
		}

		f := frameAt(&res.Derivatives[0])
		normal, binormal := f.Normal, f.Binormal
		if twist != 0 {
			sin, cos := math.Sin(twist*t), math.Cos(twist*t)
			nr := normal.Scaled(cos)
			br := binormal.Scaled(sin)
			nr.Add(&br)
			ns := normal.Scaled(-sin)
			bc := binormal.Scaled(cos)
			ns.Add(&bc)
			normal, binormal = nr, ns
		}

		// frame columns map profile-local x, y, z into world space
		m := mat4.Ident
		m[0] = vec4.T{normal[0], normal[1], normal[2], 0}
		m[1] = vec4.T{binormal[0], binormal[1], binormal[2], 0}
		m[2] = vec4.T{f.Tangent[0], f.Tangent[1], f.Tangent[2], 0}
		m.SetTranslation(&res.Point)

		for i := 0; i <= sweepProfileSamples; i++ {
			pt := m.MulVec3(&profPts[i])

			// rotate without translating for the tangent direction
			pTan := profTans[i]
			tanWorld := normal.Scaled(pTan[0])
			by := binormal.Scaled(pTan[1])
			bz := f.Tangent.Scaled(pTan[2])
			tanWorld.Add(&by)
			tanWorld.Add(&bz)

			n := vec3.Cross(&f.Tangent, &tanWorld)
			if n.LengthSqr() < internal.Epsilon {
				n = normal
			} else {
				n.Normalize()
			}

			uv := vec2.T{t, float64(i) / sweepProfileSamples}
			mesh.addVertex(&pt, &n, uv)
		}
	}

	ring := sweepProfileSamples + 1
	for j := 0; j < sections; j++ {
		for i := 0; i < sweepProfileSamples; i++ {
			a := j*ring + i
			b := (j+1)*ring + i
			mesh.addQuad(a, b, b+1, a+1)
		}
	}

	Logger().Debug("swept profile along path", "op", op, "sections", sections, "vertices", mesh.VertexCount())

	return mesh, nil
}
