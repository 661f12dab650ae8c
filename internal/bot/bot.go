// Package bot adapts the game to the Discord gateway: slash commands start
// and configure games, reaction clicks on the game message move the player,
// and the grid renders as an emoji embed edited in place.
package bot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ryebridge/gridkeeper/internal/achievements"
	"github.com/ryebridge/gridkeeper/internal/config"
	"github.com/ryebridge/gridkeeper/internal/game/engine"
	gamesession "github.com/ryebridge/gridkeeper/internal/game/session"
	"github.com/ryebridge/gridkeeper/internal/guildconfig"
	"github.com/ryebridge/gridkeeper/internal/score"
	"github.com/ryebridge/gridkeeper/internal/shop"
)

// XP grants for game events.
const (
	xpPerItem  = 10
	xpPerLevel = 100
	xpPerWin   = 500
)

// winLevel is the run length: completing this level wins the game.
const winLevel = 10

// Bot owns the Discord session and routes gateway events into the game,
// configuration, score, and shop layers.
type Bot struct {
	logger  *zap.Logger
	discord *discordgo.Session
	status  string

	configs      *guildconfig.Store
	scores       *score.Store
	inventories  *shop.Store
	sessions     *gamesession.Manager
	levels       engine.LevelTable
	achievements *achievements.Registry

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Bot wired to all stores but not yet connected.
//
// Precondition: every dependency must be non-nil and cfg.Token non-empty.
func New(
	logger *zap.Logger,
	cfg config.DiscordConfig,
	configs *guildconfig.Store,
	scores *score.Store,
	inventories *shop.Store,
	sessions *gamesession.Manager,
	levels engine.LevelTable,
	registry *achievements.Registry,
) (*Bot, error) {
	discord, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	b := &Bot{
		logger:       logger,
		discord:      discord,
		status:       cfg.Status,
		configs:      configs,
		scores:       scores,
		inventories:  inventories,
		sessions:     sessions,
		levels:       levels,
		achievements: registry,
		done:         make(chan struct{}),
	}

	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildEmojis

	discord.AddHandler(b.onReady)
	discord.AddHandler(b.onInteraction)
	discord.AddHandler(b.onReactionAdd)

	return b, nil
}

// Start connects to the gateway, registers the slash commands, and blocks
// until Stop is called.
//
// Postcondition: The command set is registered globally before this returns
// an error or blocks.
func (b *Bot) Start() error {
	if err := b.discord.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}

	appID := b.discord.State.User.ID
	if _, err := b.discord.ApplicationCommandBulkOverwrite(appID, "", commandDefinitions()); err != nil {
		b.discord.Close()
		return fmt.Errorf("registering slash commands: %w", err)
	}
	b.logger.Info("slash commands registered",
		zap.Int("count", len(commandDefinitions())),
	)

	<-b.done
	return nil
}

// Stop disconnects from the gateway. Safe to call more than once.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		if err := b.discord.Close(); err != nil {
			b.logger.Warn("closing gateway connection", zap.Error(err))
		}
	})
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("gateway ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
	if b.status != "" {
		if err := s.UpdateGameStatus(0, b.status); err != nil {
			b.logger.Warn("setting presence", zap.Error(err))
		}
	}
}

// GuildEmojis lists a guild's custom emoji, satisfying
// guildconfig.EmojiSource for :name: shorthand resolution.
func (b *Bot) GuildEmojis(guildID string) ([]guildconfig.Emoji, error) {
	emojis, err := b.discord.GuildEmojis(guildID)
	if err != nil {
		return nil, fmt.Errorf("listing guild emoji: %w", err)
	}
	out := make([]guildconfig.Emoji, 0, len(emojis))
	for _, e := range emojis {
		out = append(out, guildconfig.Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated})
	}
	return out, nil
}

// loadGuildConfig returns the guild's configuration, falling back to the
// in-memory default when the stored document is unreadable.
func (b *Bot) loadGuildConfig(guildID string) guildconfig.Config {
	cfg, err := b.configs.Load(guildID)
	if err != nil {
		b.logger.Warn("loading guild config, using defaults",
			zap.String("guild_id", guildID),
			zap.Error(err),
		)
	}
	return cfg
}

// reactionID converts a stored glyph into the identifier discordgo's
// reaction endpoints expect: unicode emoji pass through, custom tokens
// <a:name:id> become name:id.
func reactionID(glyph string) string {
	if !strings.HasPrefix(glyph, "<") || !strings.HasSuffix(glyph, ">") {
		return glyph
	}
	inner := strings.TrimSuffix(glyph, ">")
	inner = strings.TrimPrefix(inner, "<")
	inner = strings.TrimPrefix(inner, "a:")
	inner = strings.TrimPrefix(inner, ":")
	return inner
}

// emojiGlyph converts a gateway reaction emoji back into the glyph form
// stored in guild configuration.
func emojiGlyph(e discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	if e.Animated {
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
}
