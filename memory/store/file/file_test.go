package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherlabs/aether-go/memory"
	"github.com/aetherlabs/aether-go/memory/embed/feature"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	embedder, err := feature.New()
	require.NoError(t, err)
	return New(t.TempDir(), embedder)
}

func TestAppendThenLoadAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := memory.Metadata{
		Type:      memory.TypeJournal,
		Date:      "2026-08-28",
		Sentiment: memory.SentimentPositive,
		Tags:      []string{"morning"},
	}
	stored, err := s.Append(ctx, "u1", "shipped the release and went for a run", meta)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	require.Len(t, stored.Embedding, feature.DefaultDimensions)

	entries, err := s.LoadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "shipped the release and went for a run", got.Content)
	assert.Equal(t, meta, got.Metadata)
	assert.Equal(t, stored.Embedding, got.Embedding, "embedding must round-trip exactly")
	assert.True(t, stored.Timestamp.Equal(got.Timestamp))
}

func TestLoadAllStorageOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		e, err := s.Append(ctx, "u1", fmt.Sprintf("entry number %d", i),
			memory.Metadata{Type: memory.TypeTask, Date: "2026-08-28"})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	entries, err := s.LoadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID, "position %d", i)
	}
}

func TestLoadAllUnknownUserIsEmpty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.LoadAll(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendRejectsInvalidType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Append(context.Background(), "u1", "text",
		memory.Metadata{Type: "mood", Date: "2026-08-28"})
	assert.Error(t, err)
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, "u1", "alpha", memory.Metadata{Type: memory.TypeJournal, Date: "2026-08-28"})
	require.NoError(t, err)
	_, err = s.Append(ctx, "u2", "beta", memory.Metadata{Type: memory.TypeJournal, Date: "2026-08-28"})
	require.NoError(t, err)

	u1, err := s.LoadAll(ctx, "u1")
	require.NoError(t, err)
	u2, err := s.LoadAll(ctx, "u2")
	require.NoError(t, err)

	require.Len(t, u1, 1)
	require.Len(t, u2, 1)
	assert.Equal(t, "alpha", u1[0].Content)
	assert.Equal(t, "beta", u2[0].Content)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Append(ctx, "u1", fmt.Sprintf("concurrent entry %d", i),
				memory.Metadata{Type: memory.TypeHabit, Date: "2026-08-28"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "append %d", i)
	}

	entries, err := s.LoadAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, n, "no append may be silently dropped")
}

func TestConstructionSucceedsOnUnusableDir(t *testing.T) {
	// Point the store at a path whose parent is a regular file: MkdirAll
	// can never succeed there. Construction must still work and the
	// failure must wait for the first write.
	embedder, err := feature.New()
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := New(filepath.Join(blocker, "memories"), embedder)

	_, err = s.Append(context.Background(), "u1", "text",
		memory.Metadata{Type: memory.TypeJournal, Date: "2026-08-28"})
	require.Error(t, err)
	assert.ErrorIs(t, err, memory.ErrStorageUnavailable)
}
