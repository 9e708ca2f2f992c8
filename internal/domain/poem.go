package domain

import (
	"encoding/json"
	"fmt"
)

// Poem is a finished four-line run kept in the archive.
type Poem struct {
	ID        PoemID
	Theme     Theme
	Kind      VisualsKind
	Lines     []LineRecord
	CreatedAt Timestamp
}

func (p *Poem) Clone() *Poem {
	if p == nil {
		return nil
	}
	out := *p
	out.Lines = make([]LineRecord, len(p.Lines))
	for i, l := range p.Lines {
		out.Lines[i] = l.Clone()
	}
	return &out
}

// EncodeLines turns records into their JSON wire form, one string per
// line, for stores that keep documents flat.
func EncodeLines(lines []LineRecord) ([]string, error) {
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		b, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("encode line %d: %w", i, err)
		}
		out = append(out, string(b))
	}
	return out, nil
}

func DecodeLines(raw []string) ([]LineRecord, error) {
	out := make([]LineRecord, 0, len(raw))
	for i, r := range raw {
		var l LineRecord
		if err := json.Unmarshal([]byte(r), &l); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}
