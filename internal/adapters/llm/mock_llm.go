package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PabloGalante/symbiotic-sonnet/internal/config"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

var (
	mockThemeRe = regexp.MustCompile(`theme "([^"]*)"`)
	mockLineRe  = regexp.MustCompile(`line number (\d+)`)
)

var mockLines = []string{
	"Beneath the hush of {theme}, a small light wakes,",
	"it gathers color where the silence breaks,",
	"and every shape it touches learns to fall,",
	"until {theme} is nothing, and is all.",
}

var mockPalette = []string{"#1B2A41", "#324A5F", "#0C1821", "#CCC9DC"}

// MockLLM answers like a chatty model: the JSON comes wrapped in a
// markdown fence with a sentence of prose around it.
type MockLLM struct {
	kind domain.VisualsKind
}

func NewMockLLM(kind domain.VisualsKind) *MockLLM {
	return &MockLLM{kind: kind}
}

func (m *MockLLM) Name() string { return config.ProviderMock }

func (m *MockLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	var prompt string
	for _, msg := range req.Messages {
		if msg.Role == domain.RoleUser {
			prompt = msg.Content
		}
	}

	theme := "the theme"
	if sm := mockThemeRe.FindStringSubmatch(prompt); sm != nil && sm[1] != "" {
		theme = sm[1]
	}
	idx := 0
	if sm := mockLineRe.FindStringSubmatch(prompt); sm != nil {
		if n, err := strconv.Atoi(sm[1]); err == nil && n >= 1 {
			idx = (n - 1) % len(mockLines)
		}
	}

	rec := m.record(strings.ReplaceAll(mockLines[idx], "{theme}", theme), idx)
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return "Here is your line:\n```json\n" + string(b) + "\n```\nEnjoy!", nil
}

func (m *MockLLM) record(line string, idx int) domain.LineRecord {
	bg := mockPalette[idx%len(mockPalette)]

	if m.kind == domain.VisualsFlat {
		return domain.LineRecord{
			Line: line,
			Kind: domain.VisualsFlat,
			Flat: &domain.FlatVisuals{
				BgColor:     bg,
				CircleColor: "#F4D35E",
				Size:        100 + float64(idx)*40,
				Speed:       2 + float64(idx),
			},
		}
	}

	min, _ := m.kind.ShapeCount()
	shapes := make([]domain.Shape, 0, min+1)
	for i := 0; i <= min; i++ {
		s := domain.Shape{
			Shape:      domain.ShapeKinds[(idx*3+i)%len(domain.ShapeKinds)],
			Position:   domain.Vec3{float64(i*2 - min), float64(i%3 - 1), float64(idx - 2)},
			ShapeColor: mockPalette[(idx+i+1)%len(mockPalette)],
			Wireframe:  i%2 == 0,
		}
		if m.kind == domain.VisualsPhysics {
			mass := 1 + float64(i%5)
			restitution := 0.9
			impulse := domain.Vec3{float64(i), 2, float64(-i)}
			s.Mass, s.Restitution, s.InitialImpulse = &mass, &restitution, &impulse
		}
		shapes = append(shapes, s)
	}

	return domain.LineRecord{
		Line:  line,
		Kind:  m.kind,
		Scene: &domain.SceneVisuals{SceneBgColor: bg, Shapes: shapes},
	}
}
