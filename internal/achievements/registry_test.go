package achievements

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Builtin())
	require.NoError(t, err)
	return r
}

func TestBuiltinSetIsValid(t *testing.T) {
	r := builtinRegistry(t)
	assert.Len(t, r.All(), 15)
}

func TestNewRegistryRejectsBadSets(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry([]Achievement{
		{ID: "a", Name: "A", XPReward: 1, Condition: "stats.wins >= 1"},
		{ID: "a", Name: "A2", XPReward: 1, Condition: "stats.wins >= 2"},
	})
	assert.Error(t, err, "duplicate IDs rejected")

	_, err = NewRegistry([]Achievement{
		{ID: "a", Name: "A", XPReward: 1, Condition: "stats.wins >=>= 1"},
	})
	assert.Error(t, err, "syntax errors caught at construction")
}

func TestGet(t *testing.T) {
	r := builtinRegistry(t)

	a, err := r.Get("first_item")
	require.NoError(t, err)
	assert.Equal(t, 50, a.XPReward)

	_, err = r.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCheckUnlocksMatching(t *testing.T) {
	r := builtinRegistry(t)

	stats := map[string]int{
		"wins": 1, "highest_level": 3, "items_collected": 12,
		"games_played": 1, "levels_completed": 1, "games_completed": 0,
		"deaths": 2, "xp": 0,
	}

	newly, err := r.Check(stats, nil)
	require.NoError(t, err)

	ids := make([]string, 0, len(newly))
	for _, a := range newly {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"first_item", "collect_10", "level_3", "first_win"}, ids)
}

func TestCheckSkipsUnlocked(t *testing.T) {
	r := builtinRegistry(t)

	stats := map[string]int{
		"wins": 1, "highest_level": 0, "items_collected": 1,
		"games_played": 0, "levels_completed": 0, "games_completed": 0,
		"deaths": 0, "xp": 0,
	}
	held := map[string]bool{"first_item": true, "zombie_survivor": true}

	newly, err := r.Check(stats, func(id string) bool { return held[id] })
	require.NoError(t, err)

	for _, a := range newly {
		assert.False(t, held[a.ID], "already-held achievement %q re-unlocked", a.ID)
	}
	ids := make([]string, 0, len(newly))
	for _, a := range newly {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"first_win"}, ids)
}

func TestCheckCompoundCondition(t *testing.T) {
	r := builtinRegistry(t)

	// games_completed >= 1 but deaths > 0: survivor must stay locked.
	stats := map[string]int{
		"wins": 0, "highest_level": 0, "items_collected": 0,
		"games_played": 0, "levels_completed": 0, "games_completed": 1,
		"deaths": 1, "xp": 0,
	}
	newly, err := r.Check(stats, nil)
	require.NoError(t, err)
	for _, a := range newly {
		assert.NotEqual(t, "zombie_survivor", a.ID)
	}
}

func TestByCategory(t *testing.T) {
	r := builtinRegistry(t)
	groups := r.ByCategory()
	assert.Len(t, groups["Collection"], 4)
	assert.Len(t, groups["Survival"], 2)
	assert.Equal(t, "first_item", groups["Collection"][0].ID)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "achievements.yaml")
	data := []byte(`
achievements:
  - id: speedrun
    name: Speedrun
    description: Reach level 5 in under 5 games
    category: Custom
    xp_reward: 250
    condition: "stats.highest_level >= 5 and stats.games_played <= 5"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	achs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, achs, 1)

	r, err := NewRegistry(achs)
	require.NoError(t, err)

	newly, err := r.Check(map[string]int{"highest_level": 5, "games_played": 3}, nil)
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, "speedrun", newly[0].ID)
}

func TestLoadFileRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("achievements: []"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestPredicateSandboxBlocksEscapes(t *testing.T) {
	_, err := NewRegistry([]Achievement{
		{ID: "evil", Name: "Evil", XPReward: 1, Condition: `load("return 1")() == 1`},
	})
	// load is stripped from the sandbox; the predicate compiles but must
	// fail at evaluation.
	require.NoError(t, err)

	r, err := NewRegistry([]Achievement{
		{ID: "evil", Name: "Evil", XPReward: 1, Condition: `load ~= nil`},
	})
	require.NoError(t, err)
	newly, err := r.Check(map[string]int{}, nil)
	require.NoError(t, err)
	assert.Empty(t, newly, "load must be nil inside the sandbox")
}

func TestPredicateInstructionLimit(t *testing.T) {
	r, err := NewRegistry([]Achievement{
		{ID: "spin", Name: "Spin", XPReward: 1,
			Condition: `(function() local n = 0; while true do n = n + 1 end end)()`},
	})
	require.NoError(t, err)

	_, err = r.Check(map[string]int{}, nil)
	assert.Error(t, err, "runaway predicate must be cut off")
}
