package domain

import "time"

type PoemID string

// Theme is the user-chosen topic. It is used verbatim in every prompt.
type Theme string

// PoemLength is the number of lines a finished poem has.
const PoemLength = 4

type SessionState string

const (
	StateInput      SessionState = "input"      // awaiting theme / key entry
	StateGenerating SessionState = "generating" // 0-3 lines accumulated, requesting more
	StateFinished   SessionState = "finished"   // 4 lines accumulated, awaiting reset
)

type Timestamp = time.Time
