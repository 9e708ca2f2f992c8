package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

// Service turns (theme, line number, history) into one LineRecord.
// It is stateless; every call stands alone.
type Service struct {
	llm           domain.TextGenerator
	kind          domain.VisualsKind
	requireAPIKey bool
	now           func() time.Time
}

type Option func(*Service)

// WithRequireAPIKey makes a caller-supplied key mandatory.
func WithRequireAPIKey(required bool) Option {
	return func(s *Service) { s.requireAPIKey = required }
}

func NewService(llm domain.TextGenerator, kind domain.VisualsKind, opts ...Option) *Service {
	s := &Service{
		llm:  llm,
		kind: kind,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind is the visuals variant this service produces.
func (s *Service) Kind() domain.VisualsKind {
	return s.kind
}

type GenerateInput struct {
	Theme      domain.Theme
	LineNumber int
	History    []string

	// APIKey, when set, overrides the server's default credential.
	APIKey string
}

// Validate checks the request contract. Errors match domain.ErrInvalidInput.
func (s *Service) Validate(in GenerateInput) error {
	if strings.TrimSpace(string(in.Theme)) == "" {
		return domain.InvalidInput("theme", "must not be empty")
	}
	if in.LineNumber < 0 || in.LineNumber >= domain.PoemLength {
		return domain.InvalidInput("lineNumber", "must be between 0 and %d, got %d", domain.PoemLength-1, in.LineNumber)
	}
	if len(in.History) != in.LineNumber {
		return domain.InvalidInput("history", "expected %d previous lines, got %d", in.LineNumber, len(in.History))
	}
	if s.requireAPIKey && strings.TrimSpace(in.APIKey) == "" {
		return domain.InvalidInput("apiKey", "is required")
	}
	return nil
}

// GenerateLine returns the next line of the poem. Only contract
// violations are returned as errors; every upstream or parsing failure is
// logged and replaced with domain.Fallback.
func (s *Service) GenerateLine(ctx context.Context, in GenerateInput) (domain.LineRecord, error) {
	if err := s.Validate(in); err != nil {
		return domain.LineRecord{}, err
	}

	log := observability.LoggerFromContext(ctx).With(
		zap.String("provider", s.llm.Name()),
		zap.String("visuals", string(s.kind)),
		zap.Int("line_number", in.LineNumber),
	)
	start := s.now()

	rec, err := s.generate(ctx, in)
	if err != nil {
		log.Warn("line generation failed, using fallback",
			zap.String("failure", classify(err)),
			zap.Error(err),
		)
		return domain.Fallback(s.kind), nil
	}

	log.Info("line generated",
		zap.Int64("elapsed_ms", s.now().Sub(start).Milliseconds()),
		zap.Int("line_chars", len(rec.Line)),
	)
	return rec, nil
}

func (s *Service) generate(ctx context.Context, in GenerateInput) (domain.LineRecord, error) {
	prompt := BuildPrompt(in.Theme, in.LineNumber, in.History, s.kind)

	text, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		APIKey:   strings.TrimSpace(in.APIKey),
	})
	if err != nil {
		return domain.LineRecord{}, err
	}

	return parseLineRecord(text, s.kind)
}

func classify(err error) string {
	var te *domain.TransportError
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, domain.ErrParseFailure):
		return "parse"
	case errors.Is(err, domain.ErrMalformedResponse), errors.Is(err, domain.ErrEmptyResponse):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
