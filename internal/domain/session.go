package domain

// Session is the client-side state of one poem generation run.
// It is owned by a single sequencer and never shared across runs.
type Session struct {
	State  SessionState
	Theme  Theme
	APIKey string // kept in memory only

	// Lines is append-only and never longer than PoemLength.
	Lines []LineRecord
}

// History returns the text of every accumulated line, in order.
func (s Session) History() []string {
	out := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, l.Line)
	}
	return out
}

// Clone returns a deep copy safe to hand to observers.
func (s Session) Clone() Session {
	out := s
	out.Lines = make([]LineRecord, len(s.Lines))
	for i, l := range s.Lines {
		out.Lines[i] = l.Clone()
	}
	return out
}
