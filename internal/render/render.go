// Package render draws poem lines in the terminal, tinted with the
// colors of their visual directive.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

var (
	mutedColor = lipgloss.Color("#888888")
	errorColor = lipgloss.Color("#e53935")
)

// Terminal writes sessions and poems to w. Color output depends on what
// w supports; plain writers get plain text.
type Terminal struct {
	w io.Writer
	r *lipgloss.Renderer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w, r: lipgloss.NewRenderer(w)}
}

// Line renders one record. Invalid colors fall back to the defaults.
func (t *Terminal) Line(n int, rec domain.LineRecord) string {
	bg, fg := colorsOf(rec)

	text := t.r.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg)).
		Bold(true).
		Padding(0, 2).
		Render(rec.Line)

	detail := t.r.NewStyle().
		Foreground(mutedColor).
		Render(describe(rec))

	return fmt.Sprintf("%d. %s\n   %s", n+1, text, detail)
}

// Status renders a one-line header for the state of a run.
func (t *Terminal) Status(s domain.Session) string {
	header := t.r.NewStyle().Foreground(mutedColor).Italic(true)
	switch s.State {
	case domain.StateGenerating:
		return header.Render(fmt.Sprintf("%s · line %d of %d", s.Theme, len(s.Lines)+1, domain.PoemLength))
	case domain.StateFinished:
		return header.Render(fmt.Sprintf("%s · complete", s.Theme))
	default:
		return header.Render("waiting for a theme")
	}
}

// Poem renders an archived poem with its title.
func (t *Terminal) Poem(title string, lines []domain.LineRecord) string {
	var b strings.Builder
	b.WriteString(t.r.NewStyle().Bold(true).Underline(true).Render(title))
	for i, l := range lines {
		b.WriteString("\n")
		b.WriteString(t.Line(i, l))
	}
	return b.String()
}

func (t *Terminal) Error(msg string) string {
	return t.r.NewStyle().Foreground(errorColor).Render(msg)
}

// Println writes s followed by a newline.
func (t *Terminal) Println(s string) {
	fmt.Fprintln(t.w, s)
}

func colorsOf(rec domain.LineRecord) (bg, fg string) {
	bg = safeColor(rec.Background(), domain.DefaultBackground)
	fg = domain.DefaultForeground
	switch {
	case rec.Flat != nil:
		fg = safeColor(rec.Flat.CircleColor, fg)
	case rec.Scene != nil && len(rec.Scene.Shapes) > 0:
		fg = safeColor(rec.Scene.Shapes[0].ShapeColor, fg)
	}
	return bg, fg
}

func safeColor(c, def string) string {
	if domain.ValidColor(c) {
		return c
	}
	return def
}

func describe(rec domain.LineRecord) string {
	switch {
	case rec.Flat != nil:
		return fmt.Sprintf("circle %.0fpx, pulse %.1fs", rec.Flat.Size, rec.Flat.Speed)
	case rec.Scene != nil:
		names := make([]string, 0, len(rec.Scene.Shapes))
		for _, s := range rec.Scene.Shapes {
			name := string(s.Shape)
			if s.Wireframe {
				name += " (wire)"
			}
			names = append(names, name)
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}
