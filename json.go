package tessera

import (
	"github.com/goccy/go-json"
	"github.com/ungerik/go3d/float64/vec3"
)

// Serialized forms hold the defining data only; derived state (memo
// caches, bounding boxes) is rebuilt on demand after decoding.
// Decoding runs the same validation as the constructors, so corrupt
// payloads surface as StructuralError rather than broken entities.

type bezierJSON struct {
	Points  []vec3.T  `json:"points"`
	Degree  int       `json:"degree"`
	Weights []float64 `json:"weights,omitempty"`
}

func (c *BezierCurve) MarshalJSON() ([]byte, error) {
	return json.Marshal(bezierJSON{
		Points:  c.ControlPoints(),
		Degree:  c.degree,
		Weights: c.Weights(),
	})
}

func (c *BezierCurve) UnmarshalJSON(data []byte) error {
	var raw bezierJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Degree != len(raw.Points)-1 {
		return structural("bezier: degree %d inconsistent with %d control points", raw.Degree, len(raw.Points))
	}

	built, err := NewBezierCurve(raw.Points, raw.Weights)
	if err != nil {
		return err
	}
	c.points, c.weights, c.degree = built.points, built.weights, built.degree
	c.invalidate()
	return nil
}

type splineJSON struct {
	Points   []vec3.T `json:"points"`
	Basis    string   `json:"basis"`
	Tension  float64  `json:"tension,omitempty"`
	Tangents []vec3.T `json:"tangents,omitempty"`
}

func (s *Spline) MarshalJSON() ([]byte, error) {
	raw := splineJSON{
		Points:  s.ControlPoints(),
		Basis:   s.basis.String(),
		Tension: s.tension,
	}
	if s.basis == BasisHermite && !s.autoTangents {
		raw.Tangents = s.Tangents()
	}
	return json.Marshal(raw)
}

func (s *Spline) UnmarshalJSON(data []byte) error {
	var raw splineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var built *Spline
	var err error
	switch raw.Basis {
	case BasisCatmullRom.String():
		built, err = NewSpline(raw.Points, BasisCatmullRom, raw.Tension)
	case BasisBSpline.String():
		built, err = NewSpline(raw.Points, BasisBSpline, raw.Tension)
	case BasisHermite.String():
		if raw.Tangents == nil {
			built, err = NewSpline(raw.Points, BasisHermite, raw.Tension)
		} else {
			built, err = NewHermiteSpline(raw.Points, raw.Tangents)
		}
	default:
		return structural("spline: unknown basis %q", raw.Basis)
	}
	if err != nil {
		return err
	}
	s.points, s.basis, s.tension, s.tangents = built.points, built.basis, built.tension, built.tangents
	s.autoTangents = built.autoTangents
	s.cache.clear()
	s.bboxMu.Lock()
	s.bbox = nil
	s.bboxMu.Unlock()
	return nil
}

type nurbsJSON struct {
	DegreeU int         `json:"degreeU"`
	DegreeV int         `json:"degreeV"`
	Points  [][]vec3.T  `json:"points"`
	Weights [][]float64 `json:"weights,omitempty"`
	KnotsU  []float64   `json:"knotsU"`
	KnotsV  []float64   `json:"knotsV"`
	Domain  *domainJSON `json:"domain,omitempty"`
}

type domainJSON struct {
	U0 float64 `json:"u0"`
	U1 float64 `json:"u1"`
	V0 float64 `json:"v0"`
	V1 float64 `json:"v1"`
}

func (s *NURBSSurface) MarshalJSON() ([]byte, error) {
	raw := nurbsJSON{
		DegreeU: s.degreeU,
		DegreeV: s.degreeV,
		Points:  s.ControlPoints(),
		Weights: s.Weights(),
		KnotsU:  s.KnotsU(),
		KnotsV:  s.KnotsV(),
	}

	ku0, ku1 := s.knotsU.Domain()
	kv0, kv1 := s.knotsV.Domain()
	if s.trimU0 != ku0 || s.trimU1 != ku1 || s.trimV0 != kv0 || s.trimV1 != kv1 {
		raw.Domain = &domainJSON{U0: s.trimU0, U1: s.trimU1, V0: s.trimV0, V1: s.trimV1}
	}

	return json.Marshal(raw)
}

func (s *NURBSSurface) UnmarshalJSON(data []byte) error {
	var raw nurbsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	built, err := NewNURBSSurface(raw.DegreeU, raw.DegreeV, raw.Points, raw.Weights, raw.KnotsU, raw.KnotsV)
	if err != nil {
		return err
	}
	if raw.Domain != nil {
		if err := built.Trim(raw.Domain.U0, raw.Domain.U1, raw.Domain.V0, raw.Domain.V1); err != nil {
			return err
		}
	}

	s.degreeU, s.degreeV = built.degreeU, built.degreeV
	s.controlPoints = built.controlPoints
	s.knotsU, s.knotsV = built.knotsU, built.knotsV
	s.trimU0, s.trimU1 = built.trimU0, built.trimU1
	s.trimV0, s.trimV1 = built.trimV0, built.trimV1
	s.invalidate()
	return nil
}
