package score

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestGetUnknownPlayerIsZero(t *testing.T) {
	s := newStore(t)
	st, err := s.Get("g", "p")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestRecordersAccumulate(t *testing.T) {
	s := newStore(t)

	_, err := s.RecordGameStart("g", "p")
	require.NoError(t, err)
	_, err = s.RecordItemCollected("g", "p", 10)
	require.NoError(t, err)
	_, err = s.RecordLevelComplete("g", "p", 3, 100)
	require.NoError(t, err)
	_, err = s.RecordGameOver("g", "p")
	require.NoError(t, err)
	st, err := s.RecordWin("g", "p", 500)
	require.NoError(t, err)

	assert.Equal(t, 1, st.GamesPlayed)
	assert.Equal(t, 1, st.ItemsCollected)
	assert.Equal(t, 1, st.LevelsCompleted)
	assert.Equal(t, 3, st.HighestLevel)
	assert.Equal(t, 1, st.Deaths)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 610, st.XP)
}

func TestHighestLevelOnlyRises(t *testing.T) {
	s := newStore(t)
	_, err := s.RecordLevelComplete("g", "p", 5, 0)
	require.NoError(t, err)
	st, err := s.RecordLevelComplete("g", "p", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, st.HighestLevel)
}

func TestSpendXP(t *testing.T) {
	s := newStore(t)
	_, err := s.AddXP("g", "p", 600)
	require.NoError(t, err)

	st, err := s.SpendXP("g", "p", 500)
	require.NoError(t, err)
	assert.Equal(t, 100, st.XP)

	_, err = s.SpendXP("g", "p", 500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientXP))

	st, err = s.Get("g", "p")
	require.NoError(t, err)
	assert.Equal(t, 100, st.XP, "failed spend must not change the balance")
}

func TestUnlockIdempotent(t *testing.T) {
	s := newStore(t)
	_, err := s.Unlock("g", "p", "first_item")
	require.NoError(t, err)
	st, err := s.Unlock("g", "p", "first_item")
	require.NoError(t, err)
	assert.Equal(t, []string{"first_item"}, st.Achievements)
	assert.True(t, st.HasAchievement("first_item"))
}

func TestPersistenceAcrossStores(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewStore(dir)
	require.NoError(t, err)
	_, err = s1.AddXP("g", "p", 42)
	require.NoError(t, err)

	s2, err := NewStore(dir)
	require.NoError(t, err)
	st, err := s2.Get("g", "p")
	require.NoError(t, err)
	assert.Equal(t, 42, st.XP)
}

func TestCorruptDocumentSurfacesStorageError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g.json"), []byte("{bad"), 0o644))

	_, err = s.Get("g", "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
}

func TestLeaderboard(t *testing.T) {
	s := newStore(t)
	_, err := s.AddXP("g", "alice", 300)
	require.NoError(t, err)
	_, err = s.AddXP("g", "bob", 500)
	require.NoError(t, err)
	_, err = s.AddXP("g", "carol", 300)
	require.NoError(t, err)

	entries, err := s.Leaderboard("g", "xp", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{PlayerID: "bob", Value: 500}, entries[0])
	assert.Equal(t, Entry{PlayerID: "alice", Value: 300}, entries[1], "ties break by player ID")
}

func TestAsMapCoversAllStats(t *testing.T) {
	st := Stats{Wins: 1, HighestLevel: 2, ItemsCollected: 3, GamesPlayed: 4,
		LevelsCompleted: 5, GamesCompleted: 6, Deaths: 7, XP: 8}
	m := st.AsMap()
	assert.Len(t, m, len(StatNames))
	assert.Equal(t, 3, m["items_collected"])
	assert.Equal(t, 8, m["xp"])
}

func TestConcurrentMutations(t *testing.T) {
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddXP("g", "p", 5); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	st, err := s.Get("g", "p")
	require.NoError(t, err)
	assert.Equal(t, 100, st.XP)
}
