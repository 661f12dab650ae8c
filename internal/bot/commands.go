package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
	gamesession "github.com/ryebridge/gridkeeper/internal/game/session"
	"github.com/ryebridge/gridkeeper/internal/guildconfig"
	"github.com/ryebridge/gridkeeper/internal/score"
	"github.com/ryebridge/gridkeeper/internal/shop"
)

// commandDefinitions returns the slash command set registered at startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	fieldChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0,
		len(guildconfig.GlyphFieldNames())+len(guildconfig.NumericFieldNames()))
	for _, name := range guildconfig.GlyphFieldNames() {
		fieldChoices = append(fieldChoices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	for _, name := range guildconfig.NumericFieldNames() {
		fieldChoices = append(fieldChoices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}

	statChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(score.StatNames))
	for _, name := range score.StatNames {
		statChoices = append(statChoices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}

	itemChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 3)
	for _, item := range shop.Catalog() {
		itemChoices = append(itemChoices, &discordgo.ApplicationCommandOptionChoice{Name: item.Name, Value: item.ID})
	}

	manageGuild := int64(discordgo.PermissionManageServer)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Start a new game (replaces your current one)",
		},
		{
			Name:        "stop",
			Description: "Abandon your current game",
		},
		{
			Name:                     "configure",
			Description:              "Change a game setting for this server",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "field",
					Description: "Setting to change",
					Required:    true,
					Choices:     fieldChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value: an emoji (or :name: shorthand) for glyphs, a number for settings",
					Required:    true,
				},
			},
		},
		{
			Name:        "scores",
			Description: "Show the server leaderboard and your stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "stat",
					Description: "Statistic to rank by (default: xp)",
					Choices:     statChoices,
				},
			},
		},
		{
			Name:        "achievements",
			Description: "Show your achievement progress",
		},
		{
			Name:        "shop",
			Description: "Browse the power-up shop",
		},
		{
			Name:        "buy",
			Description: "Buy a power-up with XP",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "Power-up to buy",
					Required:    true,
					Choices:     itemChoices,
				},
			},
		},
		{
			Name:        "inventory",
			Description: "Show your power-up inventory",
		},
		{
			Name:        "use",
			Description: "Apply a power-up to your current game",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "Power-up to apply",
					Required:    true,
					Choices:     itemChoices,
				},
			},
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		b.replyEphemeral(s, i, "Games only run inside a server.")
		return
	}

	name := i.ApplicationCommandData().Name
	b.logger.Debug("command received",
		zap.String("command", name),
		zap.String("guild_id", i.GuildID),
		zap.String("player_id", interactionUserID(i)),
	)

	switch name {
	case "play":
		b.handlePlay(s, i)
	case "stop":
		b.handleStop(s, i)
	case "configure":
		b.handleConfigure(s, i)
	case "scores":
		b.handleScores(s, i)
	case "achievements":
		b.handleAchievements(s, i)
	case "shop":
		b.handleShop(s, i)
	case "buy":
		b.handleBuy(s, i)
	case "inventory":
		b.handleInventory(s, i)
	case "use":
		b.handleUse(s, i)
	}
}

// interactionUserID returns the invoking user's ID for both guild and DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// commandOptions flattens the interaction's options by name.
func commandOptions(i *discordgo.InteractionCreate) map[string]string {
	out := make(map[string]string)
	for _, opt := range i.ApplicationCommandData().Options {
		out[opt.Name] = opt.StringValue()
	}
	return out
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("sending interaction reply", zap.Error(err))
	}
}

func (b *Bot) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("sending interaction embed", zap.Error(err))
	}
}

func (b *Bot) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	cfg := b.loadGuildConfig(guildID)

	game, err := engine.New(cfg.GameConfig(b.levels), 1, nil)
	if err != nil {
		b.logger.Error("creating game",
			zap.String("guild_id", guildID),
			zap.Error(err),
		)
		b.replyEphemeral(s, i, "Could not start a game with this server's settings.")
		return
	}

	sess, err := b.sessions.Start(guildID, playerID, game)
	if err != nil {
		b.replyEphemeral(s, i, "Could not start a game: "+err.Error())
		return
	}

	if _, err := b.scores.RecordGameStart(guildID, playerID); err != nil {
		b.logger.Warn("recording game start", zap.Error(err))
	}

	b.replyEmbed(s, i, gameEmbed(game, cfg, statusPlaying, 0), false)

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		b.logger.Error("fetching game message", zap.Error(err))
		return
	}
	if err := b.sessions.BindMessage(sess, msg.ChannelID, msg.ID); err != nil {
		// The player started another game before the render landed.
		b.logger.Debug("binding game message", zap.Error(err))
		return
	}
	for _, glyph := range cfg.MovementGlyphs() {
		if err := s.MessageReactionAdd(msg.ChannelID, msg.ID, reactionID(glyph)); err != nil {
			b.logger.Warn("adding movement reaction",
				zap.String("glyph", glyph),
				zap.Error(err),
			)
		}
	}
}

func (b *Bot) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	if err := b.sessions.End(guildID, playerID); err != nil {
		b.replyEphemeral(s, i, "You have no game running. Start one with /play.")
		return
	}
	b.replyEphemeral(s, i, "Game abandoned. Start a fresh one with /play.")
}

func (b *Bot) handleConfigure(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	opts := commandOptions(i)
	field, value := opts["field"], opts["value"]

	if guildconfig.IsGlyphField(field) {
		resolved, err := guildconfig.ResolveGlyph(guildID, value, b)
		if err != nil {
			b.replyEphemeral(s, i, configureErrorMessage(err))
			return
		}
		value = resolved
	}

	_, err := b.configs.Update(guildID, func(c *guildconfig.Config) error {
		return c.Apply(field, value)
	})
	if err != nil {
		b.replyEphemeral(s, i, configureErrorMessage(err))
		return
	}

	b.logger.Info("guild configured",
		zap.String("guild_id", guildID),
		zap.String("field", field),
	)
	b.replyEphemeral(s, i, fmt.Sprintf("Set **%s** to %s. New games pick this up immediately.", field, value))
}

// configureErrorMessage maps configure failures to player-facing text.
func configureErrorMessage(err error) string {
	switch {
	case errors.Is(err, guildconfig.ErrEmojiNotFound):
		return "That custom emoji does not exist on this server."
	case errors.Is(err, guildconfig.ErrUnknownField):
		return "Unknown setting."
	case errors.Is(err, guildconfig.ErrValidation):
		return "Invalid value: " + err.Error()
	case errors.Is(err, guildconfig.ErrStorage):
		return "Saving failed; the setting was not changed. Try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func (b *Bot) handleScores(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	stat := commandOptions(i)["stat"]
	if stat == "" {
		stat = "xp"
	}

	entries, err := b.scores.Leaderboard(guildID, stat, 10)
	if err != nil {
		b.replyEphemeral(s, i, "Could not load the leaderboard.")
		return
	}
	st, err := b.scores.Get(guildID, playerID)
	if err != nil {
		b.replyEphemeral(s, i, "Could not load your stats.")
		return
	}

	var board strings.Builder
	if len(entries) == 0 {
		board.WriteString("Nobody has played yet.")
	}
	for rank, e := range entries {
		fmt.Fprintf(&board, "%d. <@%s> — %d\n", rank+1, e.PlayerID, e.Value)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏅 Leaderboard — %s", stat),
		Color: colorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Top players", Value: board.String()},
			{Name: "Your stats", Value: fmt.Sprintf(
				"XP **%d** · Wins **%d** · Highest level **%d** · Items **%d** · Games **%d** · Deaths **%d**",
				st.XP, st.Wins, st.HighestLevel, st.ItemsCollected, st.GamesPlayed, st.Deaths,
			)},
		},
	}
	b.replyEmbed(s, i, embed, false)
}

func (b *Bot) handleAchievements(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	st, err := b.scores.Get(guildID, playerID)
	if err != nil {
		b.replyEphemeral(s, i, "Could not load your achievements.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🏆 Achievements",
		Color: colorPlaying,
	}
	unlocked := 0
	for category, group := range b.achievements.ByCategory() {
		var lines strings.Builder
		for _, a := range group {
			mark := "🔒"
			if st.HasAchievement(a.ID) {
				mark = "✅"
				unlocked++
			}
			fmt.Fprintf(&lines, "%s **%s** — %s (+%d XP)\n", mark, a.Name, a.Description, a.XPReward)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: category, Value: lines.String(),
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d of %d unlocked", unlocked, len(b.achievements.All())),
	}
	b.replyEmbed(s, i, embed, true)
}

func (b *Bot) handleShop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	st, err := b.scores.Get(i.GuildID, interactionUserID(i))
	if err != nil {
		b.replyEphemeral(s, i, "Could not load the shop.")
		return
	}
	b.replyEmbed(s, i, shopEmbed(st.XP), true)
}

func (b *Bot) handleBuy(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	itemID := commandOptions(i)["item"]

	item, err := b.inventories.Purchase(guildID, playerID, itemID, b.scores)
	if err != nil {
		switch {
		case errors.Is(err, score.ErrInsufficientXP):
			b.replyEphemeral(s, i, "Not enough XP: "+err.Error())
		case errors.Is(err, shop.ErrMaxStack):
			b.replyEphemeral(s, i, "You already hold the maximum: "+err.Error())
		default:
			b.replyEphemeral(s, i, "Purchase failed: "+err.Error())
		}
		return
	}
	b.replyEphemeral(s, i, fmt.Sprintf("%s Bought **%s** for %d XP. Apply it with /use.", item.Emoji, item.Name, item.Cost))
}

func (b *Bot) handleInventory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	inv, err := b.inventories.Inventory(guildID, playerID)
	if err != nil {
		b.replyEphemeral(s, i, "Could not load your inventory.")
		return
	}
	if len(inv) == 0 {
		b.replyEphemeral(s, i, "Your inventory is empty. Browse /shop.")
		return
	}

	var lines strings.Builder
	for _, item := range shop.Catalog() {
		if count := inv[item.ID]; count > 0 {
			fmt.Fprintf(&lines, "%s **%s** × %d\n", item.Emoji, item.Name, count)
		}
	}
	b.replyEphemeral(s, i, lines.String())
}

func (b *Bot) handleUse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, playerID := i.GuildID, interactionUserID(i)
	itemID := commandOptions(i)["item"]

	sess, ok := b.sessions.Lookup(guildID, playerID)
	if !ok {
		b.replyEphemeral(s, i, "Power-ups apply to a running game. Start one with /play.")
		return
	}

	// Check applicability under the session lock before spending the item.
	applicable := true
	sess.Do(func(sess *gamesession.Session) {
		if itemID == shop.ExtraHeart {
			applicable = sess.Game.Lives() < sess.Game.MaxLives()*2 && !sess.Game.Over()
		}
	})
	if !applicable {
		b.replyEphemeral(s, i, "You are already at the life cap.")
		return
	}

	if err := b.inventories.Consume(guildID, playerID, itemID); err != nil {
		switch {
		case errors.Is(err, shop.ErrNotOwned):
			b.replyEphemeral(s, i, "You do not own that power-up. Buy it with /buy.")
		default:
			b.replyEphemeral(s, i, "Could not use that power-up: "+err.Error())
		}
		return
	}

	var confirmation string
	sess.Do(func(sess *gamesession.Session) {
		switch itemID {
		case shop.Shield:
			sess.Game.AddShield()
			confirmation = fmt.Sprintf("🛡️ Shield raised. You now hold %d.", sess.Game.Shields())
		case shop.ExtraHeart:
			sess.Game.AddLife()
			confirmation = fmt.Sprintf("💚 Extra life! You now have %d.", sess.Game.Lives())
		case shop.SpeedBoost:
			sess.BoostMoves += 5
			confirmation = fmt.Sprintf("⚡ Speed boost! Double steps for your next %d moves.", sess.BoostMoves)
		}
	})
	b.replyEphemeral(s, i, confirmation)
	b.refreshGameMessage(sess)
}
