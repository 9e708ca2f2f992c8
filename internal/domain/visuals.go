package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// VisualsKind selects which visuals payload the model is asked for.
type VisualsKind string

const (
	VisualsFlat    VisualsKind = "flat"    // 2D pulsing circle
	VisualsScene   VisualsKind = "scene"   // 3D shapes
	VisualsPhysics VisualsKind = "physics" // 3D shapes with rigid-body parameters
)

func ParseVisualsKind(s string) (VisualsKind, error) {
	switch VisualsKind(strings.ToLower(strings.TrimSpace(s))) {
	case VisualsFlat:
		return VisualsFlat, nil
	case VisualsScene:
		return VisualsScene, nil
	case VisualsPhysics, "":
		return VisualsPhysics, nil
	default:
		return "", fmt.Errorf("unknown visuals kind %q", s)
	}
}

// ShapeCount returns the inclusive bounds on the number of shapes requested.
func (k VisualsKind) ShapeCount() (min, max int) {
	switch k {
	case VisualsScene:
		return 5, 7
	case VisualsPhysics:
		return 2, 7
	default:
		return 0, 0
	}
}

type ShapeKind string

const (
	ShapeIcosahedron  ShapeKind = "icosahedron"
	ShapeTorus        ShapeKind = "torus"
	ShapeSphere       ShapeKind = "sphere"
	ShapeDodecahedron ShapeKind = "dodecahedron"
	ShapeCone         ShapeKind = "cone"
	ShapeCylinder     ShapeKind = "cylinder"
	ShapeTorusKnot    ShapeKind = "torusKnot"
	ShapeTetrahedron  ShapeKind = "tetrahedron"
	ShapeBox          ShapeKind = "box"
	ShapeOctahedron   ShapeKind = "octahedron"
	ShapeCapsule      ShapeKind = "capsule"
)

// ShapeKinds lists every primitive in the order the prompt offers them.
var ShapeKinds = []ShapeKind{
	ShapeIcosahedron, ShapeTorus, ShapeSphere, ShapeDodecahedron, ShapeCone,
	ShapeCylinder, ShapeTorusKnot, ShapeTetrahedron, ShapeBox, ShapeOctahedron,
	ShapeCapsule,
}

func (s ShapeKind) Valid() bool {
	for _, k := range ShapeKinds {
		if k == s {
			return true
		}
	}
	return false
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

var (
	PositionXZRange  = Range{Min: -5, Max: 5}
	PositionYRange   = Range{Min: -2, Max: 2}
	MassRange        = Range{Min: 1, Max: 5}
	RestitutionRange = Range{Min: 0.5, Max: 1.2}
	ImpulseRange     = Range{Min: -10, Max: 10}
	CircleSizeRange  = Range{Min: 50, Max: 300}
	PulseSpeedRange  = Range{Min: 1, Max: 10}
)

const (
	DefaultBackground = "#111111"
	DefaultForeground = "#FFFFFF"

	defaultMass        = 1.0
	defaultRestitution = 0.8
	defaultCircleSize  = 150.0
	defaultPulseSpeed  = 4.0
)

// Vec3 is an [x, y, z] triple.
type Vec3 [3]float64

type Shape struct {
	Shape      ShapeKind `json:"shape"`
	Position   Vec3      `json:"position"`
	ShapeColor string    `json:"shapeColor"`
	Wireframe  bool      `json:"wireframe"`

	// Physics variant only.
	Mass           *float64 `json:"mass,omitempty"`
	Restitution    *float64 `json:"restitution,omitempty"`
	InitialImpulse *Vec3    `json:"initialImpulse,omitempty"`
}

func (s Shape) hasPhysics() bool {
	return s.Mass != nil || s.Restitution != nil || s.InitialImpulse != nil
}

func (s Shape) clone() Shape {
	out := s
	if s.Mass != nil {
		v := *s.Mass
		out.Mass = &v
	}
	if s.Restitution != nil {
		v := *s.Restitution
		out.Restitution = &v
	}
	if s.InitialImpulse != nil {
		v := *s.InitialImpulse
		out.InitialImpulse = &v
	}
	return out
}

type FlatVisuals struct {
	BgColor     string  `json:"bgColor"`
	CircleColor string  `json:"circleColor"`
	Size        float64 `json:"size"`
	Speed       float64 `json:"speed"`
}

type SceneVisuals struct {
	SceneBgColor string
	Shapes       []Shape
}

// LineRecord is one generated poem line with its visual directive.
// Exactly one of Flat or Scene is set, according to Kind.
type LineRecord struct {
	Line  string
	Kind  VisualsKind
	Flat  *FlatVisuals
	Scene *SceneVisuals
}

// Background returns the color the whole view should fade to.
func (r LineRecord) Background() string {
	switch {
	case r.Flat != nil:
		return r.Flat.BgColor
	case r.Scene != nil:
		return r.Scene.SceneBgColor
	default:
		return ""
	}
}

func (r LineRecord) Clone() LineRecord {
	out := r
	if r.Flat != nil {
		v := *r.Flat
		out.Flat = &v
	}
	if r.Scene != nil {
		sc := SceneVisuals{SceneBgColor: r.Scene.SceneBgColor}
		if r.Scene.Shapes != nil {
			sc.Shapes = make([]Shape, len(r.Scene.Shapes))
			for i, s := range r.Scene.Shapes {
				sc.Shapes[i] = s.clone()
			}
		}
		out.Scene = &sc
	}
	return out
}

type flatWire struct {
	Line    string      `json:"line"`
	Visuals FlatVisuals `json:"visuals"`
}

type sceneWire struct {
	Line         string  `json:"line"`
	SceneBgColor string  `json:"sceneBgColor"`
	Visuals      []Shape `json:"visuals"`
}

func (r LineRecord) MarshalJSON() ([]byte, error) {
	if r.Kind == VisualsFlat {
		w := flatWire{Line: r.Line}
		if r.Flat != nil {
			w.Visuals = *r.Flat
		}
		return json.Marshal(w)
	}

	w := sceneWire{Line: r.Line, Visuals: []Shape{}}
	if r.Scene != nil {
		w.SceneBgColor = r.Scene.SceneBgColor
		if r.Scene.Shapes != nil {
			w.Visuals = r.Scene.Shapes
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON infers the variant from the shape of "visuals":
// an object is flat, an array is scene (physics when any shape carries
// rigid-body fields).
func (r *LineRecord) UnmarshalJSON(data []byte) error {
	var probe struct {
		Visuals json.RawMessage `json:"visuals"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	var kind VisualsKind
	v := bytes.TrimSpace(probe.Visuals)
	switch {
	case len(v) > 0 && v[0] == '{':
		kind = VisualsFlat
	case len(v) > 0 && v[0] == '[':
		kind = VisualsScene
	default:
		return fmt.Errorf("%w: visuals must be an object or an array", ErrMalformedResponse)
	}

	rec, err := DecodeLineRecord(data, kind)
	if err != nil {
		return err
	}
	if kind == VisualsScene {
		for _, s := range rec.Scene.Shapes {
			if s.hasPhysics() {
				rec.Kind = VisualsPhysics
				break
			}
		}
	}
	*r = rec
	return nil
}

// DecodeLineRecord decodes a JSON object as the given variant.
// Type mismatches are reported as ErrMalformedResponse.
func DecodeLineRecord(data []byte, kind VisualsKind) (LineRecord, error) {
	switch kind {
	case VisualsFlat:
		var w flatWire
		if err := json.Unmarshal(data, &w); err != nil {
			return LineRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		flat := w.Visuals
		return LineRecord{Line: w.Line, Kind: kind, Flat: &flat}, nil

	case VisualsScene, VisualsPhysics:
		var w sceneWire
		if err := json.Unmarshal(data, &w); err != nil {
			return LineRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return LineRecord{
			Line: w.Line,
			Kind: kind,
			Scene: &SceneVisuals{
				SceneBgColor: w.SceneBgColor,
				Shapes:       w.Visuals,
			},
		}, nil

	default:
		return LineRecord{}, fmt.Errorf("unknown visuals kind %q", kind)
	}
}

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func ValidColor(c string) bool {
	return hexColorRe.MatchString(c)
}

func normalizeColor(c, def string) string {
	c = strings.TrimSpace(c)
	if ValidColor(c) {
		return c
	}
	return def
}

// Normalize validates and clamps a decoded record against the declared
// ranges of its variant. Unknown shapes are dropped and overlong shape
// lists are truncated. A record with no line text, or a shape variant
// left with no shapes, is rejected with ErrMalformedResponse.
func (r LineRecord) Normalize() (LineRecord, error) {
	out := r.Clone()
	out.Line = strings.TrimSpace(out.Line)
	if out.Line == "" {
		return LineRecord{}, fmt.Errorf("%w: missing line", ErrMalformedResponse)
	}

	switch out.Kind {
	case VisualsFlat:
		if out.Flat == nil {
			return LineRecord{}, fmt.Errorf("%w: missing visuals", ErrMalformedResponse)
		}
		f := out.Flat
		f.BgColor = normalizeColor(f.BgColor, DefaultBackground)
		f.CircleColor = normalizeColor(f.CircleColor, DefaultForeground)
		if f.Size == 0 {
			f.Size = defaultCircleSize
		}
		f.Size = CircleSizeRange.Clamp(f.Size)
		if f.Speed == 0 {
			f.Speed = defaultPulseSpeed
		}
		f.Speed = PulseSpeedRange.Clamp(f.Speed)
		out.Scene = nil
		return out, nil

	case VisualsScene, VisualsPhysics:
		if out.Scene == nil {
			return LineRecord{}, fmt.Errorf("%w: missing visuals", ErrMalformedResponse)
		}
		sc := out.Scene
		sc.SceneBgColor = normalizeColor(sc.SceneBgColor, DefaultBackground)

		_, max := out.Kind.ShapeCount()
		shapes := make([]Shape, 0, len(sc.Shapes))
		for _, s := range sc.Shapes {
			if !s.Shape.Valid() {
				continue
			}
			if len(shapes) == max {
				break
			}
			shapes = append(shapes, normalizeShape(s, out.Kind))
		}
		if len(shapes) == 0 {
			return LineRecord{}, fmt.Errorf("%w: no usable shapes", ErrMalformedResponse)
		}
		sc.Shapes = shapes
		out.Flat = nil
		return out, nil

	default:
		return LineRecord{}, fmt.Errorf("unknown visuals kind %q", out.Kind)
	}
}

func normalizeShape(s Shape, kind VisualsKind) Shape {
	s.ShapeColor = normalizeColor(s.ShapeColor, DefaultForeground)
	s.Position = Vec3{
		PositionXZRange.Clamp(s.Position[0]),
		PositionYRange.Clamp(s.Position[1]),
		PositionXZRange.Clamp(s.Position[2]),
	}

	if kind != VisualsPhysics {
		s.Mass, s.Restitution, s.InitialImpulse = nil, nil, nil
		return s
	}

	mass := defaultMass
	if s.Mass != nil {
		mass = MassRange.Clamp(*s.Mass)
	}
	restitution := defaultRestitution
	if s.Restitution != nil {
		restitution = RestitutionRange.Clamp(*s.Restitution)
	}
	var impulse Vec3
	if s.InitialImpulse != nil {
		for i, v := range s.InitialImpulse {
			impulse[i] = ImpulseRange.Clamp(v)
		}
	}
	s.Mass, s.Restitution, s.InitialImpulse = &mass, &restitution, &impulse
	return s
}

// FallbackLine is shown whenever a line could not be generated.
const FallbackLine = "An error occurred in the digital ether."

// Fallback returns the fixed substitute record for a variant. Every call
// returns an equal, independently owned value.
func Fallback(kind VisualsKind) LineRecord {
	if kind == VisualsFlat {
		return LineRecord{
			Line: FallbackLine,
			Kind: VisualsFlat,
			Flat: &FlatVisuals{
				BgColor:     DefaultBackground,
				CircleColor: DefaultForeground,
				Size:        defaultCircleSize,
				Speed:       defaultPulseSpeed,
			},
		}
	}

	shape := Shape{
		Shape:      ShapeIcosahedron,
		ShapeColor: DefaultForeground,
		Wireframe:  true,
	}
	if kind == VisualsPhysics {
		mass, restitution := defaultMass, defaultRestitution
		shape.Mass = &mass
		shape.Restitution = &restitution
		shape.InitialImpulse = &Vec3{}
	} else {
		kind = VisualsScene
	}

	return LineRecord{
		Line: FallbackLine,
		Kind: kind,
		Scene: &SceneVisuals{
			SceneBgColor: DefaultBackground,
			Shapes:       []Shape{shape},
		},
	}
}
