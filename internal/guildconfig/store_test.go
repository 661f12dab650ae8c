package guildconfig

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

func TestStore_LoadMissingReturnsDefaults(t *testing.T) {
	s := newStore(t)
	cfg, err := s.Load("123")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	cfg := Default()
	cfg.Zombie = "<:creeper:112233>"
	cfg.Width = 12
	cfg.Height = 7
	cfg.Lives = 5

	require.NoError(t, s.Save("guild1", cfg))

	loaded, err := s.Load("guild1")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStore_SaveRejectsInvalidWithoutWriting(t *testing.T) {
	s := newStore(t)

	good := Default()
	good.Lives = 7
	require.NoError(t, s.Save("guild1", good))

	bad := Default()
	bad.Width = 4
	err := s.Save("guild1", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	loaded, err := s.Load("guild1")
	require.NoError(t, err)
	assert.Equal(t, good, loaded, "prior stored config must be untouched")
}

func TestStore_PartialDocumentKeepsPerFieldDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	doc := []byte(`{"zombie": "🤖", "player_lives": 5}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g.json"), doc, 0o644))

	cfg, err := s.Load("g")
	require.NoError(t, err)
	assert.Equal(t, "🤖", cfg.Zombie)
	assert.Equal(t, 5, cfg.Lives)
	assert.Equal(t, Default().Wall, cfg.Wall, "absent fields keep defaults")
	assert.Equal(t, Default().ZombieInterval, cfg.ZombieInterval)
}

func TestStore_CorruptDocumentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "g.json"), []byte("{nope"), 0o644))

	cfg, err := s.Load("g")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.Equal(t, Default(), cfg, "defaults remain usable on storage failure")
}

func TestStore_SaveWritesFullFieldSet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save("g", Default()))

	data, err := os.ReadFile(filepath.Join(dir, "g.json"))
	require.NoError(t, err)
	for _, key := range []string{"wall", "obstacle", "empty", "player", "portal", "zombie",
		"diamond", "wood", "stone", "coal", "up", "down", "left", "right",
		"heart", "skull", "width", "height", "player_lives", "zombie_interval"} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("g", Default()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "g.json", entries[0].Name())
}

func TestStore_Update(t *testing.T) {
	s := newStore(t)

	cfg, err := s.Update("g", func(c *Config) error {
		return c.Apply("player_lives", "8")
	})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Lives)

	loaded, err := s.Load("g")
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Lives)
}

func TestStore_UpdateFailureDoesNotPersist(t *testing.T) {
	s := newStore(t)
	_, err := s.Update("g", func(c *Config) error {
		return c.Apply("width", "999")
	})
	require.Error(t, err)

	loaded, err := s.Load("g")
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestStore_ConcurrentUpdatesLoseNothing(t *testing.T) {
	s := newStore(t)

	// Each goroutine updates a different glyph field. If the load-modify-save
	// cycle ran outside the lock, two racing updates could load the same
	// base document and one write would vanish.
	fields := GlyphFieldNames()
	var wg sync.WaitGroup
	for _, field := range fields {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			_, err := s.Update("g", func(c *Config) error {
				return c.Apply(field, "🧩")
			})
			if err != nil {
				t.Error(err)
			}
		}(field)
	}
	wg.Wait()

	loaded, err := s.Load("g")
	require.NoError(t, err)
	for name, get := range glyphFields {
		assert.Equal(t, "🧩", *get(&loaded), "update to %q was lost", name)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cfg := Default()
			cfg.Lives = 1 + n%MaxLives
			if err := s.Save("g", cfg); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	loaded, err := s.Load("g")
	require.NoError(t, err)
	assert.NoError(t, loaded.Validate(), "document must never be torn")
}
