package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

func TestLineToleratesBadColors(t *testing.T) {
	rec := domain.LineRecord{
		Line: "ash remembers fire",
		Kind: domain.VisualsFlat,
		Flat: &domain.FlatVisuals{BgColor: "purple-ish", CircleColor: "#zzz", Size: 120, Speed: 3},
	}

	bg, fg := colorsOf(rec)
	assert.Equal(t, domain.DefaultBackground, bg)
	assert.Equal(t, domain.DefaultForeground, fg)

	out := NewTerminal(&bytes.Buffer{}).Line(0, rec)
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "ash remembers fire")
	assert.Contains(t, out, "circle 120px")
}

func TestSceneColorsComeFromFirstShape(t *testing.T) {
	rec := domain.Fallback(domain.VisualsPhysics)
	rec.Scene.SceneBgColor = "#223344"
	rec.Scene.Shapes[0].ShapeColor = "#abcdef"

	bg, fg := colorsOf(rec)
	assert.Equal(t, "#223344", bg)
	assert.Equal(t, "#abcdef", fg)
	assert.Equal(t, "icosahedron (wire)", describe(rec))
}

func TestStatus(t *testing.T) {
	term := NewTerminal(&bytes.Buffer{})
	s := domain.Session{
		State: domain.StateGenerating,
		Theme: "Harbor",
		Lines: []domain.LineRecord{domain.Fallback(domain.VisualsScene)},
	}
	assert.Contains(t, term.Status(s), "Harbor · line 2 of 4")

	s.State = domain.StateFinished
	assert.Contains(t, term.Status(s), "Harbor · complete")

	assert.Contains(t, term.Status(domain.Session{State: domain.StateInput}), "waiting")
}

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	NewTerminal(&buf).Println("hello")
	assert.Equal(t, "hello\n", buf.String())
}
