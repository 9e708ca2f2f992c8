package generation

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

const flatInstructions = `
You are a poet and a visual artist creating an abstract 2D animation. Your task is to generate one line of a four-line poem about the theme "%s". This is line number %d. The previous lines were: "%s".

You must also generate a corresponding JSON object. The JSON must strictly follow this format: {"line": "your poetic line", "visuals": {"bgColor": "#hex", "circleColor": "#hex", "size": number, "speed": number}}.

- "bgColor": A hex color for the page background, fitting the mood.
- "circleColor": A hex color for a single pulsing circle.
- "size": The circle diameter in pixels (between %s and %s).
- "speed": Seconds per pulse (between %s and %s).
`

const sceneInstructions = `
You are a poet and a visual artist creating an abstract 3D %s. Your task is to generate one line of a four-line poem about the theme "%s". This is line number %d. The previous lines were: "%s".

You must also generate a corresponding JSON object. The JSON must strictly follow this format: {"line": "your poetic line", "sceneBgColor": "#hex", "visuals": [ { ...shape_object_1... }, ... ]}.

- "sceneBgColor": A single hex color for the entire scene's background, fitting the mood.
- "visuals": An array of %d to %d shape objects. Each shape object must have:
  - "shape": Choose from: %s.
  - "position": An [x, y, z] coordinate array for the shape's starting position (x and z between %s and %s, y between %s and %s).
  - "shapeColor": A hex color for the shape's material.
  - "wireframe": A boolean (true or false).
`

const physicsFields = `  - "mass": A number for mass (between %s and %s).
  - "restitution": A number for bounciness (between %s and %s).
  - "initialImpulse": An [x, y, z] array for a starting push (values between %s and %s).
`

const outputRule = `
Your final output must be ONLY the raw JSON object, without any markdown formatting, backticks, or other explanatory text.`

// BuildPrompt builds the single user turn asking for line lineNumber
// (0-based) of a poem about theme, given the lines written so far.
func BuildPrompt(theme domain.Theme, lineNumber int, history []string, kind domain.VisualsKind) string {
	previous := strings.Join(history, " ")

	var b strings.Builder
	switch kind {
	case domain.VisualsFlat:
		fmt.Fprintf(&b, flatInstructions,
			theme, lineNumber+1, previous,
			num(domain.CircleSizeRange.Min), num(domain.CircleSizeRange.Max),
			num(domain.PulseSpeedRange.Min), num(domain.PulseSpeedRange.Max),
		)
	default:
		subject := "scene"
		if kind == domain.VisualsPhysics {
			subject = "physics simulation"
		}
		min, max := kind.ShapeCount()
		fmt.Fprintf(&b, sceneInstructions,
			subject, theme, lineNumber+1, previous,
			min, max, shapeList(),
			num(domain.PositionXZRange.Min), num(domain.PositionXZRange.Max),
			num(domain.PositionYRange.Min), num(domain.PositionYRange.Max),
		)
		if kind == domain.VisualsPhysics {
			fmt.Fprintf(&b, physicsFields,
				num(domain.MassRange.Min), num(domain.MassRange.Max),
				num(domain.RestitutionRange.Min), num(domain.RestitutionRange.Max),
				num(domain.ImpulseRange.Min), num(domain.ImpulseRange.Max),
			)
		}
	}
	b.WriteString(outputRule)

	return strings.TrimSpace(b.String())
}

func shapeList() string {
	quoted := make([]string, 0, len(domain.ShapeKinds))
	for _, k := range domain.ShapeKinds {
		quoted = append(quoted, `"`+string(k)+`"`)
	}
	return strings.Join(quoted, ", ")
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
