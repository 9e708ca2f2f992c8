package domain

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one call to a text-generation backend.
// Sampling parameters are fixed per backend and are not part of it.
type CompletionRequest struct {
	Messages []Message

	// APIKey overrides the backend's default credential when set.
	APIKey string
}

// TextGenerator defines how the core application talks to a model service.
type TextGenerator interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// PoemArchive persists finished poems.
type PoemArchive interface {
	SavePoem(ctx context.Context, poem *Poem) error
	GetPoem(ctx context.Context, id PoemID) (*Poem, error)
	ListPoems(ctx context.Context, limit int) ([]*Poem, error)
}
