// Package guildconfig manages per-guild game settings: glyph assignments
// for every field entity and control, field dimensions, and lives. Records
// persist as one JSON document per guild and fall back to defaults field
// by field.
package guildconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
)

// Sentinel errors. Callers distinguish them with errors.Is.
var (
	// ErrValidation marks a rejected configure write: a numeric bound
	// violation or an empty glyph. Nothing is persisted.
	ErrValidation = errors.New("invalid configuration value")
	// ErrStorage marks a persistence I/O failure. In-memory defaults remain
	// usable for the current run.
	ErrStorage = errors.New("configuration storage failure")
	// ErrEmojiNotFound marks a :name: shorthand that matches no custom emoji
	// on the guild.
	ErrEmojiNotFound = errors.New("custom emoji not found")
	// ErrUnknownField marks a configure write against a field that does not
	// exist.
	ErrUnknownField = errors.New("unknown configuration field")
)

// Numeric bounds for configurable game settings.
const (
	MinWidth  = 5
	MaxWidth  = 50
	MinHeight = 3
	MaxHeight = 30
	MinLives  = 1
	MaxLives  = 10
	// Zombie cadence: one step every N player moves.
	MinZombieInterval = 1
	MaxZombieInterval = 10
)

// Config is the full per-guild settings record. JSON field names are the
// persisted document keys; documents missing a key keep the default for
// that key alone.
type Config struct {
	// Field entity glyphs.
	Wall     string `json:"wall"`
	Obstacle string `json:"obstacle"`
	Empty    string `json:"empty"`
	Player   string `json:"player"`
	Portal   string `json:"portal"`
	Zombie   string `json:"zombie"`

	// Collectible item glyphs.
	Diamond string `json:"diamond"`
	Wood    string `json:"wood"`
	Stone   string `json:"stone"`
	Coal    string `json:"coal"`

	// Movement control glyphs, applied as reactions on the game message.
	Up    string `json:"up"`
	Down  string `json:"down"`
	Left  string `json:"left"`
	Right string `json:"right"`

	// UI glyphs.
	Heart string `json:"heart"`
	Skull string `json:"skull"`

	// Game settings. Width and Height of 0 defer to the level table.
	Width          int `json:"width"`
	Height         int `json:"height"`
	Lives          int `json:"player_lives"`
	ZombieInterval int `json:"zombie_interval"`
}

// Default returns the hard-coded configuration used for guilds without a
// stored record and as the per-field fallback for partial records.
func Default() Config {
	return Config{
		Wall:     "⬛",
		Obstacle: "🟥",
		Empty:    "🟦",
		Player:   "🟢",
		Portal:   "🛠️",
		Zombie:   "🧟",
		Diamond:  "💎",
		Wood:     "🪵",
		Stone:    "🪨",
		Coal:     "⚫",
		Up:       "⬆️",
		Down:     "⬇️",
		Left:     "⬅️",
		Right:    "➡️",
		Heart:    "❤️",
		Skull:    "💀",

		Width:          0,
		Height:         0,
		Lives:          3,
		ZombieInterval: 2,
	}
}

// glyphFields maps configure field names to accessors, keeping Apply, the
// command options, and Validate in sync from one table.
var glyphFields = map[string]func(*Config) *string{
	"wall":     func(c *Config) *string { return &c.Wall },
	"obstacle": func(c *Config) *string { return &c.Obstacle },
	"empty":    func(c *Config) *string { return &c.Empty },
	"player":   func(c *Config) *string { return &c.Player },
	"portal":   func(c *Config) *string { return &c.Portal },
	"zombie":   func(c *Config) *string { return &c.Zombie },
	"diamond":  func(c *Config) *string { return &c.Diamond },
	"wood":     func(c *Config) *string { return &c.Wood },
	"stone":    func(c *Config) *string { return &c.Stone },
	"coal":     func(c *Config) *string { return &c.Coal },
	"up":       func(c *Config) *string { return &c.Up },
	"down":     func(c *Config) *string { return &c.Down },
	"left":     func(c *Config) *string { return &c.Left },
	"right":    func(c *Config) *string { return &c.Right },
	"heart":    func(c *Config) *string { return &c.Heart },
	"skull":    func(c *Config) *string { return &c.Skull },
}

type numericBound struct {
	min, max int
	get      func(*Config) *int
}

var numericFields = map[string]numericBound{
	"width":           {MinWidth, MaxWidth, func(c *Config) *int { return &c.Width }},
	"height":          {MinHeight, MaxHeight, func(c *Config) *int { return &c.Height }},
	"player_lives":    {MinLives, MaxLives, func(c *Config) *int { return &c.Lives }},
	"zombie_interval": {MinZombieInterval, MaxZombieInterval, func(c *Config) *int { return &c.ZombieInterval }},
}

// GlyphFieldNames returns the configure field names for glyphs, sorted for
// stable command registration.
func GlyphFieldNames() []string {
	names := make([]string, 0, len(glyphFields))
	for name := range glyphFields {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// NumericFieldNames returns the configure field names for numeric settings.
func NumericFieldNames() []string {
	names := make([]string, 0, len(numericFields))
	for name := range numericFields {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// sortStrings is an insertion sort; the field lists are tiny.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// IsGlyphField reports whether name is a glyph configure field.
func IsGlyphField(name string) bool {
	_, ok := glyphFields[name]
	return ok
}

// Apply sets a single field from a raw command value. Glyph fields take the
// value verbatim (resolve shorthand first with ResolveGlyph); numeric
// fields parse and bounds-check.
//
// Postcondition: On error the Config is unchanged; errors wrap
// ErrValidation or ErrUnknownField.
func (c *Config) Apply(field, raw string) error {
	raw = strings.TrimSpace(raw)

	if get, ok := glyphFields[field]; ok {
		if raw == "" {
			return fmt.Errorf("%w: glyph %q must not be empty", ErrValidation, field)
		}
		*get(c) = raw
		return nil
	}

	if bound, ok := numericFields[field]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s needs a number, got %q", ErrValidation, field, raw)
		}
		if n < bound.min || n > bound.max {
			return fmt.Errorf("%w: %s must be %d-%d, got %d", ErrValidation, field, bound.min, bound.max, n)
		}
		*bound.get(c) = n
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Validate checks every numeric bound and every glyph for non-emptiness.
//
// Postcondition: Returns nil or an error wrapping ErrValidation naming the
// first offending field.
func (c Config) Validate() error {
	for name, get := range glyphFields {
		if *get(&c) == "" {
			return fmt.Errorf("%w: glyph %q must not be empty", ErrValidation, name)
		}
	}
	// Width and Height allow 0 ("use the level table") in addition to the
	// configured range.
	if c.Width != 0 && (c.Width < MinWidth || c.Width > MaxWidth) {
		return fmt.Errorf("%w: width must be %d-%d, got %d", ErrValidation, MinWidth, MaxWidth, c.Width)
	}
	if c.Height != 0 && (c.Height < MinHeight || c.Height > MaxHeight) {
		return fmt.Errorf("%w: height must be %d-%d, got %d", ErrValidation, MinHeight, MaxHeight, c.Height)
	}
	if c.Lives < MinLives || c.Lives > MaxLives {
		return fmt.Errorf("%w: player_lives must be %d-%d, got %d", ErrValidation, MinLives, MaxLives, c.Lives)
	}
	if c.ZombieInterval < MinZombieInterval || c.ZombieInterval > MaxZombieInterval {
		return fmt.Errorf("%w: zombie_interval must be %d-%d, got %d", ErrValidation, MinZombieInterval, MaxZombieInterval, c.ZombieInterval)
	}
	return nil
}

// Glyphs converts the record into the engine's rendering glyph set.
func (c Config) Glyphs() engine.Glyphs {
	return engine.Glyphs{
		Wall:     c.Wall,
		Obstacle: c.Obstacle,
		Empty:    c.Empty,
		Player:   c.Player,
		Portal:   c.Portal,
		Zombie:   c.Zombie,
		Items: map[engine.ItemType]string{
			engine.ItemDiamond: c.Diamond,
			engine.ItemWood:    c.Wood,
			engine.ItemStone:   c.Stone,
			engine.ItemCoal:    c.Coal,
		},
	}
}

// MovementGlyphs returns the four arrow glyphs in up/down/left/right order,
// the order they are applied as reactions.
func (c Config) MovementGlyphs() []string {
	return []string{c.Up, c.Down, c.Left, c.Right}
}

// DirectionFor maps a reaction glyph to its movement direction.
//
// Postcondition: Returns (direction, true) for one of the four configured
// arrows, (0, false) for anything else.
func (c Config) DirectionFor(glyph string) (engine.Direction, bool) {
	switch glyph {
	case c.Up:
		return engine.Up, true
	case c.Down:
		return engine.Down, true
	case c.Left:
		return engine.Left, true
	case c.Right:
		return engine.Right, true
	default:
		return 0, false
	}
}

// GameConfig converts the record into engine settings, layering the level
// table in.
func (c Config) GameConfig(levels engine.LevelTable) engine.GameConfig {
	return engine.GameConfig{
		Width:          c.Width,
		Height:         c.Height,
		Lives:          c.Lives,
		ZombieInterval: c.ZombieInterval,
		Levels:         levels,
	}
}
