package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service keeps finished poems.
type Service struct {
	store domain.PoemArchive
	now   func() time.Time
	newID func() string
}

// NewService creates an archive service over store. A nil store
// disables archiving; reads return empty results and saves fail.
func NewService(store domain.PoemArchive) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

func (s *Service) Enabled() bool { return s.store != nil }

type SavePoemInput struct {
	Theme string
	Lines []domain.LineRecord
}

// SavePoem validates a finished run and stores it under a fresh id.
// Every line must normalize cleanly and share one visuals variant.
func (s *Service) SavePoem(ctx context.Context, in SavePoemInput) (*domain.Poem, error) {
	theme := strings.TrimSpace(in.Theme)
	if theme == "" {
		return nil, domain.InvalidInput("theme", "must not be empty")
	}
	if len(in.Lines) != domain.PoemLength {
		return nil, domain.InvalidInput("lines", "want %d lines, got %d", domain.PoemLength, len(in.Lines))
	}

	lines := make([]domain.LineRecord, 0, len(in.Lines))
	for i, l := range in.Lines {
		norm, err := l.Normalize()
		if err != nil {
			return nil, domain.InvalidInput("lines", "line %d: %v", i, err)
		}
		if i > 0 && norm.Kind != lines[0].Kind {
			return nil, domain.InvalidInput("lines", "line %d is %s, expected %s", i, norm.Kind, lines[0].Kind)
		}
		lines = append(lines, norm)
	}

	if s.store == nil {
		return nil, fmt.Errorf("archive is disabled")
	}

	poem := &domain.Poem{
		ID:        domain.PoemID(s.newID()),
		Theme:     domain.Theme(theme),
		Kind:      lines[0].Kind,
		Lines:     lines,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SavePoem(ctx, poem); err != nil {
		return nil, fmt.Errorf("saving poem: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("poem archived",
		zap.String("poem_id", string(poem.ID)),
		zap.String("theme", theme),
	)
	return poem, nil
}

func (s *Service) GetPoem(ctx context.Context, id domain.PoemID) (*domain.Poem, error) {
	if s.store == nil {
		return nil, fmt.Errorf("poem %s: %w", id, domain.ErrNotFound)
	}
	return s.store.GetPoem(ctx, id)
}

// ListPoems returns the last `limit` poems, newest first. Non-positive
// limits use the default; large ones are capped.
func (s *Service) ListPoems(ctx context.Context, limit int) ([]*domain.Poem, error) {
	if s.store == nil {
		return []*domain.Poem{}, nil
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListPoems(ctx, limit)
}
