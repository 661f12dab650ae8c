package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
	gamesession "github.com/ryebridge/gridkeeper/internal/game/session"
	"github.com/ryebridge/gridkeeper/internal/guildconfig"
)

// moveReport accumulates the outcome of one reaction click, which can cover
// two engine moves under a speed boost.
type moveReport struct {
	moved          bool
	itemsCollected int
	levelAdvanced  bool
	completedLevel int
	lifeLost       bool
	over           bool
	boostMoves     int
}

func (r *moveReport) absorb(out engine.MoveOutcome, levelBefore int) {
	r.moved = r.moved || out.Moved
	if out.ItemCollected != "" {
		r.itemsCollected++
	}
	if out.LevelAdvanced {
		r.levelAdvanced = true
		r.completedLevel = levelBefore
	}
	r.lifeLost = r.lifeLost || out.LifeLost
	r.over = r.over || out.GameOver
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	b.dispatchReaction(r.GuildID, r.ChannelID, r.MessageID, r.UserID, emojiGlyph(r.Emoji))

	// Clear the click so the next one fires a fresh event. Needs the Manage
	// Messages permission; without it the player un-reacts manually.
	if err := s.MessageReactionRemove(r.ChannelID, r.MessageID, reactionID(emojiGlyph(r.Emoji)), r.UserID); err != nil {
		b.logger.Debug("clearing reaction", zap.Error(err))
	}
}

// dispatchReaction resolves a reaction event to a player move: only the
// session owner's clicks on the game message with a configured arrow count.
func (b *Bot) dispatchReaction(guildID, channelID, messageID, userID, glyph string) {
	sess, ok := b.sessions.LookupByMessage(messageID)
	if !ok || sess.PlayerID != userID {
		return
	}

	cfg := b.loadGuildConfig(guildID)
	dir, ok := cfg.DirectionFor(glyph)
	if !ok {
		return
	}

	var report moveReport
	sess.Do(func(sess *gamesession.Session) {
		steps := 1
		if sess.BoostMoves > 0 {
			steps = 2
			sess.BoostMoves--
		}
		for n := 0; n < steps; n++ {
			levelBefore := sess.Game.Level()
			out := sess.Game.Move(dir)
			report.absorb(out, levelBefore)
			if out.Blocked || out.GameOver || out.LevelAdvanced {
				break
			}
		}
		report.boostMoves = sess.BoostMoves
	})

	won := b.recordProgress(guildID, userID, channelID, report)

	status := statusPlaying
	switch {
	case won:
		status = statusWon
	case report.over:
		status = statusLost
	}

	var embed *discordgo.MessageEmbed
	sess.Do(func(sess *gamesession.Session) {
		embed = gameEmbed(sess.Game, cfg, status, sess.BoostMoves)
	})
	if _, err := b.discord.ChannelMessageEditEmbed(channelID, messageID, embed); err != nil {
		b.logger.Warn("editing game message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	if status != statusPlaying {
		if err := b.sessions.End(guildID, userID); err != nil {
			b.logger.Debug("ending finished session", zap.Error(err))
		}
	}
}

// recordProgress persists score events from one move report, checks
// achievements, and reports whether the run was won.
func (b *Bot) recordProgress(guildID, playerID, channelID string, report moveReport) bool {
	for n := 0; n < report.itemsCollected; n++ {
		if _, err := b.scores.RecordItemCollected(guildID, playerID, xpPerItem); err != nil {
			b.logger.Warn("recording item pickup", zap.Error(err))
		}
	}

	won := false
	if report.levelAdvanced {
		if _, err := b.scores.RecordLevelComplete(guildID, playerID, report.completedLevel, xpPerLevel); err != nil {
			b.logger.Warn("recording level completion", zap.Error(err))
		}
		if report.completedLevel >= winLevel {
			won = true
			if _, err := b.scores.RecordWin(guildID, playerID, xpPerWin); err != nil {
				b.logger.Warn("recording win", zap.Error(err))
			}
		}
	}
	if report.over {
		if _, err := b.scores.RecordGameOver(guildID, playerID); err != nil {
			b.logger.Warn("recording game over", zap.Error(err))
		}
	}

	if report.itemsCollected > 0 || report.levelAdvanced || report.over || won {
		b.checkAchievements(guildID, playerID, channelID)
	}
	return won
}

// checkAchievements evaluates the registry against the player's current
// stats, persists new unlocks with their XP rewards, and announces them.
func (b *Bot) checkAchievements(guildID, playerID, channelID string) {
	st, err := b.scores.Get(guildID, playerID)
	if err != nil {
		b.logger.Warn("loading stats for achievement check", zap.Error(err))
		return
	}

	newly, err := b.achievements.Check(st.AsMap(), st.HasAchievement)
	if err != nil {
		b.logger.Error("evaluating achievements", zap.Error(err))
		return
	}

	for _, a := range newly {
		if _, err := b.scores.Unlock(guildID, playerID, a.ID); err != nil {
			b.logger.Warn("persisting achievement unlock",
				zap.String("achievement", a.ID),
				zap.Error(err),
			)
			continue
		}
		if _, err := b.scores.AddXP(guildID, playerID, a.XPReward); err != nil {
			b.logger.Warn("granting achievement XP",
				zap.String("achievement", a.ID),
				zap.Error(err),
			)
		}
		b.logger.Info("achievement unlocked",
			zap.String("guild_id", guildID),
			zap.String("player_id", playerID),
			zap.String("achievement", a.ID),
		)
		msg := "🏆 <@" + playerID + "> unlocked **" + a.Name + "** — " + a.Description
		if _, err := b.discord.ChannelMessageSend(channelID, msg); err != nil {
			b.logger.Debug("announcing achievement", zap.Error(err))
		}
	}
}

// refreshGameMessage re-renders the session's game message, used after a
// power-up changes visible state outside a move.
func (b *Bot) refreshGameMessage(sess *gamesession.Session) {
	var (
		embed     *discordgo.MessageEmbed
		channelID string
		messageID string
	)
	cfg := b.loadGuildConfig(sess.GuildID)
	sess.Do(func(sess *gamesession.Session) {
		channelID, messageID = sess.ChannelID, sess.MessageID
		embed = gameEmbed(sess.Game, cfg, statusPlaying, sess.BoostMoves)
	})
	if messageID == "" {
		return
	}
	if _, err := b.discord.ChannelMessageEditEmbed(channelID, messageID, embed); err != nil {
		b.logger.Debug("refreshing game message", zap.Error(err))
	}
}

var _ guildconfig.EmojiSource = (*Bot)(nil)
