package engine

import "strings"

// Glyphs maps field entities to their display symbols. Values are either
// literal unicode emoji or Discord custom-emoji tokens; the engine treats
// them as opaque strings.
type Glyphs struct {
	Wall     string
	Obstacle string
	Empty    string
	Player   string
	Portal   string
	Zombie   string
	// Items maps each collectible kind to its symbol. Missing kinds render
	// with the Empty glyph.
	Items map[ItemType]string
}

// Render draws the field as emoji rows surrounded by a wall border.
// Cell priority: player > portal > zombie > item > obstacle > empty.
// The portal renders as empty until enough items are collected, matching
// the "locked portal" behavior players expect.
func (g *Game) Render(glyphs Glyphs) string {
	var b strings.Builder

	zombieCells := make(map[Point]bool, len(g.zombies))
	for _, z := range g.zombies {
		zombieCells[z] = true
	}

	wallRow := strings.Repeat(glyphs.Wall, g.width+2)
	b.WriteString(wallRow)
	b.WriteByte('\n')

	for y := 0; y < g.height; y++ {
		b.WriteString(glyphs.Wall)
		for x := 0; x < g.width; x++ {
			p := Point{X: x, Y: y}
			switch {
			case p == g.player:
				b.WriteString(glyphs.Player)
			case p == g.portal && g.PortalActive():
				b.WriteString(glyphs.Portal)
			case zombieCells[p]:
				b.WriteString(glyphs.Zombie)
			default:
				if kind, ok := g.items[p]; ok {
					if sym, found := glyphs.Items[kind]; found {
						b.WriteString(sym)
					} else {
						b.WriteString(glyphs.Empty)
					}
				} else if g.obstacles[p] {
					b.WriteString(glyphs.Obstacle)
				} else {
					b.WriteString(glyphs.Empty)
				}
			}
		}
		b.WriteString(glyphs.Wall)
		b.WriteByte('\n')
	}

	b.WriteString(wallRow)
	return b.String()
}
