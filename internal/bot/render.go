package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
	"github.com/ryebridge/gridkeeper/internal/guildconfig"
	"github.com/ryebridge/gridkeeper/internal/shop"
)

// gameStatus is the display state of a game embed.
type gameStatus int

const (
	statusPlaying gameStatus = iota
	statusWon
	statusLost
)

// Embed accent colors.
const (
	colorPlaying = 0x57F287 // green
	colorWon     = 0xFEE75C // gold
	colorLost    = 0xED4245 // red
)

// maxEmbedDescription is Discord's embed description limit.
const maxEmbedDescription = 4096

// gameEmbed builds the game message embed: the rendered grid plus a status
// field row. Pure function of its inputs so it can be tested without a
// gateway connection.
func gameEmbed(g *engine.Game, cfg guildconfig.Config, status gameStatus, boostMoves int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       embedTitle(g, status),
		Color:       embedColor(status),
		Description: truncateGrid(g.Render(cfg.Glyphs())),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Items",
				Value:  fmt.Sprintf("%d / %d", g.TotalCollected(), g.RequiredItems()),
				Inline: true,
			},
			{
				Name:   "Lives",
				Value:  livesLine(cfg, g.Lives()),
				Inline: true,
			},
			{
				Name:   "Level",
				Value:  fmt.Sprintf("%d", g.Level()),
				Inline: true,
			},
		},
	}

	if g.Shields() > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Shields", Value: fmt.Sprintf("🛡️ × %d", g.Shields()), Inline: true,
		})
	}
	if boostMoves > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Speed Boost", Value: fmt.Sprintf("⚡ %d moves left", boostMoves), Inline: true,
		})
	}

	switch status {
	case statusPlaying:
		if g.PortalActive() {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: "The portal is open! Step through to advance."}
		} else {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: "Collect items to open the portal. Click the arrows to move."}
		}
	case statusLost:
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Use /play to try again."}
	case statusWon:
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "A flawless escape. Use /play for another run."}
	}
	return embed
}

func embedTitle(g *engine.Game, status gameStatus) string {
	switch status {
	case statusWon:
		return "🏆 You made it out!"
	case statusLost:
		return "💀 Game Over"
	default:
		return fmt.Sprintf("Level %d", g.Level())
	}
}

func embedColor(status gameStatus) int {
	switch status {
	case statusWon:
		return colorWon
	case statusLost:
		return colorLost
	default:
		return colorPlaying
	}
}

// livesLine renders the remaining lives as hearts, or the skull glyph when
// none remain.
func livesLine(cfg guildconfig.Config, lives int) string {
	if lives <= 0 {
		return cfg.Skull
	}
	return strings.Repeat(cfg.Heart, lives)
}

// truncateGrid caps the grid at the embed description limit, cutting at a
// row boundary so a huge field degrades to a partial board instead of a
// garbled one.
func truncateGrid(grid string) string {
	if len(grid) <= maxEmbedDescription {
		return grid
	}
	const marker = "\n…"
	cut := strings.LastIndex(grid[:maxEmbedDescription-len(marker)], "\n")
	if cut < 0 {
		cut = maxEmbedDescription - len(marker)
	}
	return grid[:cut] + marker
}

// shopEmbed renders the power-up catalog.
func shopEmbed(balance int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🛒 Power-Up Shop",
		Color: colorPlaying,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Your balance: %d XP · Buy with /buy, apply with /use", balance),
		},
	}
	for _, item := range shop.Catalog() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s — %d XP", item.Emoji, item.Name, item.Cost),
			Value: fmt.Sprintf("%s (max %d)", item.Description, item.MaxStack),
		})
	}
	return embed
}
