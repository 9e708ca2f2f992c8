package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

const poemsCollection = "poems"

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed poem archive in projectID.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) poemsCol() *firestore.CollectionRef {
	return s.client.Collection(poemsCollection)
}

func (s *Store) poemDoc(id domain.PoemID) *firestore.DocumentRef {
	return s.poemsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

// Lines are kept as their JSON wire form; the visuals variant would
// otherwise need a document shape per kind.
type poemDoc struct {
	Theme     string    `firestore:"theme"`
	Kind      string    `firestore:"kind"`
	Text      []string  `firestore:"text"`
	Lines     []string  `firestore:"lines"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toPoemDoc(p *domain.Poem) (poemDoc, error) {
	lines, err := domain.EncodeLines(p.Lines)
	if err != nil {
		return poemDoc{}, err
	}
	text := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		text = append(text, l.Line)
	}
	return poemDoc{
		Theme:     string(p.Theme),
		Kind:      string(p.Kind),
		Text:      text,
		Lines:     lines,
		CreatedAt: p.CreatedAt,
	}, nil
}

func fromPoemDoc(id string, doc poemDoc) (*domain.Poem, error) {
	lines, err := domain.DecodeLines(doc.Lines)
	if err != nil {
		return nil, fmt.Errorf("poem %s: %w", id, err)
	}
	return &domain.Poem{
		ID:        domain.PoemID(id),
		Theme:     domain.Theme(doc.Theme),
		Kind:      domain.VisualsKind(doc.Kind),
		Lines:     lines,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// ─────────────────────────────────────────
// PoemArchive implementation
// ─────────────────────────────────────────

func (s *Store) SavePoem(ctx context.Context, poem *domain.Poem) error {
	doc, err := toPoemDoc(poem)
	if err != nil {
		return fmt.Errorf("firestore SavePoem: %w", err)
	}

	if _, err := s.poemDoc(poem.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore SavePoem: %w", err)
	}
	return nil
}

func (s *Store) GetPoem(ctx context.Context, id domain.PoemID) (*domain.Poem, error) {
	snap, err := s.poemDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("poem %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetPoem: %w", err)
	}

	var doc poemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetPoem decode: %w", err)
	}
	return fromPoemDoc(snap.Ref.ID, doc)
}

func (s *Store) ListPoems(ctx context.Context, limit int) ([]*domain.Poem, error) {
	q := s.poemsCol().OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Poem
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListPoems: %w", err)
		}

		var doc poemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode poemDoc: %w", err)
		}

		p, err := fromPoemDoc(snap.Ref.ID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
