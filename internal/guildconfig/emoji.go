package guildconfig

import (
	"fmt"
	"regexp"
	"strings"
)

// Emoji is one custom emoji visible to a guild.
type Emoji struct {
	ID       string
	Name     string
	Animated bool
}

// Token returns the Discord message token for the emoji.
func (e Emoji) Token() string {
	if e.Animated {
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
}

// EmojiSource lists the custom emoji of a guild. The Discord adapter
// implements it; tests supply fixtures.
type EmojiSource interface {
	GuildEmojis(guildID string) ([]Emoji, error)
}

var (
	// <:name:id> or <a:name:id>
	fullTokenPattern = regexp.MustCompile(`^<a?:\w+:\d+>$`)
	// :name:
	shorthandPattern = regexp.MustCompile(`^:(\w+):$`)
)

// ResolveGlyph turns a raw configure value into a renderable glyph.
// Accepted inputs:
//   - a literal character or unicode emoji, passed through unchanged
//   - a fully qualified <:name:id> / <a:name:id> token, passed through
//   - a :name: shorthand, resolved against the guild's custom emoji by name
//
// Postcondition: Returns the glyph, or an error wrapping ErrValidation for
// empty input, ErrEmojiNotFound for an unresolvable shorthand, or
// ErrStorage when the source cannot be queried.
func ResolveGlyph(guildID, raw string, source EmojiSource) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: glyph must not be empty", ErrValidation)
	}

	if fullTokenPattern.MatchString(raw) {
		return raw, nil
	}

	m := shorthandPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw, nil
	}
	name := m[1]

	if source == nil {
		return "", fmt.Errorf("%w: no emoji source for guild %s", ErrStorage, guildID)
	}
	emojis, err := source.GuildEmojis(guildID)
	if err != nil {
		return "", fmt.Errorf("%w: listing emoji for guild %s: %v", ErrStorage, guildID, err)
	}
	for _, e := range emojis {
		if e.Name == name {
			return e.Token(), nil
		}
	}
	return "", fmt.Errorf("%w: %q on guild %s", ErrEmojiNotFound, name, guildID)
}
