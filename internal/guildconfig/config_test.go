package guildconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"width below minimum", func(c *Config) { c.Width = 4 }},
		{"width above maximum", func(c *Config) { c.Width = 51 }},
		{"height below minimum", func(c *Config) { c.Height = 2 }},
		{"height above maximum", func(c *Config) { c.Height = 31 }},
		{"lives below minimum", func(c *Config) { c.Lives = 0 }},
		{"lives above maximum", func(c *Config) { c.Lives = 11 }},
		{"zombie interval zero", func(c *Config) { c.ZombieInterval = 0 }},
		{"empty glyph", func(c *Config) { c.Zombie = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateAllowsZeroDimensions(t *testing.T) {
	cfg := Default()
	cfg.Width = 0
	cfg.Height = 0
	assert.NoError(t, cfg.Validate(), "zero means use the level table")
}

func TestApplyGlyphField(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Apply("zombie", "🤖"))
	assert.Equal(t, "🤖", cfg.Zombie)

	err := cfg.Apply("zombie", "   ")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "🤖", cfg.Zombie, "failed apply must not mutate")
}

func TestApplyNumericField(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Apply("width", "12"))
	assert.Equal(t, 12, cfg.Width)

	assert.True(t, errors.Is(cfg.Apply("width", "4"), ErrValidation))
	assert.True(t, errors.Is(cfg.Apply("width", "51"), ErrValidation))
	assert.True(t, errors.Is(cfg.Apply("player_lives", "zero"), ErrValidation))
	assert.Equal(t, 12, cfg.Width)
}

func TestApplyUnknownField(t *testing.T) {
	cfg := Default()
	err := cfg.Apply("teleporter", "x")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestFieldNameTables(t *testing.T) {
	glyphs := GlyphFieldNames()
	assert.Len(t, glyphs, 16)
	assert.True(t, IsGlyphField("portal"))
	assert.False(t, IsGlyphField("width"))

	nums := NumericFieldNames()
	assert.Equal(t, []string{"height", "player_lives", "width", "zombie_interval"}, nums)
}

func TestDirectionFor(t *testing.T) {
	cfg := Default()
	dir, ok := cfg.DirectionFor(cfg.Left)
	require.True(t, ok)
	assert.Equal(t, engine.Left, dir)

	_, ok = cfg.DirectionFor("🍕")
	assert.False(t, ok)
}

func TestGlyphsMapping(t *testing.T) {
	cfg := Default()
	cfg.Diamond = "D"
	glyphs := cfg.Glyphs()
	assert.Equal(t, cfg.Wall, glyphs.Wall)
	assert.Equal(t, "D", glyphs.Items[engine.ItemDiamond])
}

func TestPropertyNumericBoundsEnforced(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(MinWidth, MaxWidth).Draw(t, "width")
		height := rapid.IntRange(MinHeight, MaxHeight).Draw(t, "height")
		lives := rapid.IntRange(MinLives, MaxLives).Draw(t, "lives")

		cfg := Default()
		cfg.Width = width
		cfg.Height = height
		cfg.Lives = lives
		if err := cfg.Validate(); err != nil {
			t.Fatalf("in-bounds config rejected: %v", err)
		}
	})
}

func TestPropertyOutOfBoundsLivesRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lives := rapid.OneOf(
			rapid.IntRange(-100, MinLives-1),
			rapid.IntRange(MaxLives+1, 100),
		).Draw(t, "lives")

		cfg := Default()
		cfg.Lives = lives
		if cfg.Validate() == nil {
			t.Fatalf("out-of-bounds lives %d accepted", lives)
		}
	})
}
