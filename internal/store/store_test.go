package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pcrtt/internal/model"
)

func openTestStore(t *testing.T, ttl time.Duration) (*Store, *time.Time) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "athletes.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestPutThenGet(t *testing.T) {
	s, _ := openTestStore(t, 0)
	ctx := context.Background()

	_, ok, err := s.GetAthlete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	alice := model.Athlete{ID: 1, FirstName: "Alice", LastName: "Smith", Gender: "F"}
	require.NoError(t, s.PutAthlete(ctx, alice))

	got, ok, err := s.GetAthlete(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice, got)
}

func TestPutOverwrites(t *testing.T) {
	s, _ := openTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 1, FirstName: "Al", LastName: "Smith"}))
	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 1, FirstName: "Alice", LastName: "Smith", Gender: "F"}))

	got, ok, err := s.GetAthlete(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice Smith", got.DisplayName())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStaleEntriesAreMissing(t *testing.T) {
	s, clock := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 1, FirstName: "Alice"}))
	*clock = clock.Add(59 * time.Minute)
	_, ok, err := s.GetAthlete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	*clock = clock.Add(2 * time.Minute)
	_, ok, err = s.GetAthlete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	s, clock := openTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 1, FirstName: "Old"}))
	*clock = clock.Add(2 * time.Hour)
	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 2, FirstName: "New"}))

	removed, err := s.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.db")
	ctx := context.Background()

	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.PutAthlete(ctx, model.Athlete{ID: 5, FirstName: "Bob", LastName: "Jones", Gender: "M"}))
	require.NoError(t, s.Close())

	s, err = Open(path, 0)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, ok, err := s.GetAthlete(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "M", got.Gender)
}
