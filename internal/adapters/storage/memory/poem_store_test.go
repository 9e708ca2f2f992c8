package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/symbiotic-sonnet/internal/adapters/storage/memory"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

func poem(id string, at time.Time) *domain.Poem {
	lines := make([]domain.LineRecord, domain.PoemLength)
	for i := range lines {
		lines[i] = domain.Fallback(domain.VisualsFlat)
	}
	return &domain.Poem{
		ID:        domain.PoemID(id),
		Theme:     "Ocean",
		Kind:      domain.VisualsFlat,
		Lines:     lines,
		CreatedAt: at,
	}
}

func TestPoemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPoemStore()
	now := time.Now()

	p := poem("a", now)
	require.NoError(t, store.SavePoem(ctx, p))

	// mutations after save do not leak into the store
	p.Lines[0].Flat.BgColor = "#ffffff"

	got, err := store.GetPoem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBackground, got.Lines[0].Flat.BgColor)

	assert.Error(t, store.SavePoem(ctx, poem("a", now)), "duplicate ids are rejected")
}

func TestPoemStoreGetMissing(t *testing.T) {
	_, err := memory.NewPoemStore().GetPoem(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPoemStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPoemStore()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SavePoem(ctx, poem(id, now.Add(time.Duration(i)*time.Second))))
	}

	all, err := store.ListPoems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.PoemID("c"), all[0].ID)
	assert.Equal(t, domain.PoemID("a"), all[2].ID)

	two, err := store.ListPoems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, domain.PoemID("b"), two[1].ID)
}
