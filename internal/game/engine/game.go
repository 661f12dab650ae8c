package engine

import (
	"fmt"
	"math/rand"
)

// GameConfig carries the per-guild settings the engine needs. Zero values
// for Width and Height mean "use the level table dimensions".
type GameConfig struct {
	// Width and Height override the level table field size when non-zero.
	Width  int
	Height int
	// Lives is the starting life count.
	Lives int
	// ZombieInterval is the number of successful player moves between zombie
	// steps. Values below 1 are treated as 1.
	ZombieInterval int
	// Levels is the level progression table. A zero table falls back to
	// DefaultLevelTable.
	Levels LevelTable
}

// Game is one player's live simulation state. Methods are not safe for
// concurrent use; the session layer serializes access.
type Game struct {
	cfg   GameConfig
	level int
	spec  LevelSpec

	width  int
	height int

	player    Point
	obstacles map[Point]bool
	items     map[Point]ItemType
	portal    Point
	zombies   []Point

	requiredItems int
	collected     map[ItemType]int
	itemsPlaced   int

	lives    int
	maxLives int
	shields  int

	movesSinceTick int
	gameOver       bool

	rng *rand.Rand
}

const (
	// spawn placement retry budgets; generation degrades gracefully when a
	// crowded field exhausts them.
	placementAttempts = 200
	// minimum Chebyshev distance between the player spawn and any zombie.
	zombieSpawnGap = 3
)

// New creates a game at the given level. A nil rng seeds from the global
// source, which is what production callers want; tests pass a seeded one.
//
// Precondition: cfg.Lives must be >= 1; level must be >= 1.
// Postcondition: The player, portal, items, obstacles, and zombies occupy
// distinct cells, and no zombie starts adjacent to the player.
func New(cfg GameConfig, level int, rng *rand.Rand) (*Game, error) {
	if cfg.Lives < 1 {
		return nil, fmt.Errorf("engine: lives must be >= 1, got %d", cfg.Lives)
	}
	if level < 1 {
		return nil, fmt.Errorf("engine: level must be >= 1, got %d", level)
	}
	if cfg.ZombieInterval < 1 {
		cfg.ZombieInterval = 1
	}
	if cfg.Levels.Rows == nil {
		cfg.Levels = DefaultLevelTable()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	g := &Game{
		cfg:      cfg,
		lives:    cfg.Lives,
		maxLives: cfg.Lives,
		rng:      rng,
	}
	g.generate(level)
	return g, nil
}

// generate lays out the field for the given level, keeping lives and
// shields intact. Used by New and by level advancement.
func (g *Game) generate(level int) {
	g.level = level
	g.spec = g.cfg.Levels.SpecFor(level)

	g.width = g.spec.Width
	g.height = g.spec.Height
	if g.cfg.Width > 0 {
		g.width = g.cfg.Width
	}
	if g.cfg.Height > 0 {
		g.height = g.cfg.Height
	}

	g.requiredItems = g.randRange(g.spec.MinItems, g.spec.MaxItems)
	g.collected = make(map[ItemType]int, len(ItemTypes))
	g.movesSinceTick = 0

	g.placeObstacles()
	g.placePlayer()
	g.placeItems()
	g.placePortal()
	g.placeZombies()

	// Guild size overrides can shrink the field below what the level spec
	// assumes; never demand more items than were actually placed.
	if g.requiredItems > g.itemsPlaced {
		g.requiredItems = g.itemsPlaced
	}
}

// randRange returns a uniform int in [lo, hi].
func (g *Game) randRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Game) randCell() Point {
	return Point{X: g.rng.Intn(g.width), Y: g.rng.Intn(g.height)}
}

func (g *Game) placeObstacles() {
	target := g.spec.Obstacles
	// Guild size overrides can shrink the field below what the level spec
	// assumes. Keep at least half the cells free so the player, portal,
	// items, and zombies always have somewhere to go.
	if limit := g.width * g.height / 2; target > limit {
		target = limit
	}
	g.obstacles = make(map[Point]bool, target)
	for attempts := 0; len(g.obstacles) < target && attempts < placementAttempts; attempts++ {
		g.obstacles[g.randCell()] = true
	}
}

func (g *Game) placePlayer() {
	for attempts := 0; attempts < placementAttempts; attempts++ {
		p := g.randCell()
		if !g.obstacles[p] {
			g.player = p
			return
		}
	}
	// Crowded field: take the first free cell in scan order.
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			p := Point{X: x, Y: y}
			if !g.obstacles[p] {
				g.player = p
				return
			}
		}
	}
	// The obstacle cap leaves free cells, so this cannot trigger; clear a
	// corner rather than spawn inside a wall.
	g.player = Point{}
	delete(g.obstacles, g.player)
}

func (g *Game) placeItems() {
	g.items = make(map[Point]ItemType)
	// Place more items than the portal requires so the player has a choice
	// of routes.
	target := g.requiredItems + g.randRange(2, 4)
	for attempts := 0; len(g.items) < target && attempts < placementAttempts; attempts++ {
		p := g.randCell()
		if g.obstacles[p] || p == g.player {
			continue
		}
		if _, taken := g.items[p]; taken {
			continue
		}
		g.items[p] = ItemTypes[g.rng.Intn(len(ItemTypes))]
	}
	g.itemsPlaced = len(g.items)
}

func (g *Game) placePortal() {
	for attempts := 0; attempts < placementAttempts; attempts++ {
		p := g.randCell()
		if g.cellFree(p) {
			g.portal = p
			return
		}
	}
	// Crowded field: take the first free cell in scan order.
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			p := Point{X: x, Y: y}
			if g.cellFree(p) {
				g.portal = p
				return
			}
		}
	}
	// No free cell at all; leave the portal on the player. Unreachable for
	// any spec that passes LevelSpec validation.
	g.portal = g.player
}

// cellFree reports whether p holds no obstacle, item, or player.
func (g *Game) cellFree(p Point) bool {
	if g.obstacles[p] || p == g.player {
		return false
	}
	_, item := g.items[p]
	return !item
}

func (g *Game) placeZombies() {
	count := g.randRange(g.spec.MinZombies, g.spec.MaxZombies)
	g.zombies = g.zombies[:0]
	taken := make(map[Point]bool, count)

	for attempts := 0; len(g.zombies) < count && attempts < placementAttempts; attempts++ {
		p := g.randCell()
		if !g.cellFree(p) || p == g.portal || taken[p] {
			continue
		}
		// Keep spawns away from the player; relax the gap once the retry
		// budget is half spent so tiny fields still get their zombies.
		if chebyshev(p, g.player) < zombieSpawnGap && attempts < placementAttempts/2 {
			continue
		}
		g.zombies = append(g.zombies, p)
		taken[p] = true
	}
}

func chebyshev(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// inBounds reports whether p is inside the playable field.
func (g *Game) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Move attempts a single player step. A blocked move (bounds or obstacle)
// returns Blocked with every piece of session state unchanged. A
// successful move collects items, may advance the level through an active
// portal, resolves zombie collisions, and ticks zombies every
// ZombieInterval successful moves.
//
// Postcondition: The player is always inside the field and never on an
// obstacle cell. Exactly one MoveOutcome is returned with all applicable
// flags set.
func (g *Game) Move(dir Direction) MoveOutcome {
	if g.gameOver {
		return MoveOutcome{Blocked: true, GameOver: true}
	}

	dx, dy := dir.Vector()
	candidate := g.player.Add(dx, dy)
	if !g.inBounds(candidate) || g.obstacles[candidate] {
		return MoveOutcome{Blocked: true}
	}

	outcome := MoveOutcome{Moved: true}
	g.player = candidate

	if kind, ok := g.items[candidate]; ok {
		delete(g.items, candidate)
		g.collected[kind]++
		outcome.ItemCollected = kind
	}

	if candidate == g.portal && g.PortalActive() {
		g.generate(g.level + 1)
		outcome.LevelAdvanced = true
		return outcome
	}

	// Collision with a zombie already on the destination cell.
	if g.zombieAt(g.player) {
		g.resolveCollision(&outcome.LifeLost, &outcome.ShieldUsed)
	}

	if !g.gameOver {
		g.movesSinceTick++
		if g.movesSinceTick >= g.cfg.ZombieInterval {
			g.movesSinceTick = 0
			tick := g.TickZombies()
			outcome.ZombiesTicked = true
			outcome.LifeLost = outcome.LifeLost || tick.LifeLost
			outcome.ShieldUsed = outcome.ShieldUsed || tick.ShieldUsed
		}
	}

	outcome.GameOver = g.gameOver
	return outcome
}

// TickZombies advances every zombie one greedy step toward the player:
// the axis with the larger distance moves first, ties prefer horizontal,
// and a blocked preferred axis falls back to the other one. Zombies never
// enter obstacle cells or stack on each other; a zombie with no useful
// step stays put. This is a local rule, not a path search — zombies can
// wedge behind obstacles.
//
// Postcondition: Any zombie landing on the player costs one shield or one
// life; exhausting lives sets the terminal state.
func (g *Game) TickZombies() ZombieTickOutcome {
	var out ZombieTickOutcome
	if g.gameOver {
		return out
	}

	occupied := make(map[Point]bool, len(g.zombies))
	for _, z := range g.zombies {
		occupied[z] = true
	}

	for i, z := range g.zombies {
		step, ok := g.zombieStep(z, occupied)
		if !ok {
			continue
		}
		delete(occupied, z)
		occupied[step] = true
		g.zombies[i] = step
		out.Moved++
	}

	if g.zombieAt(g.player) {
		g.resolveCollision(&out.LifeLost, &out.ShieldUsed)
		out.GameOver = g.gameOver
	}
	return out
}

// zombieStep picks the greedy step for one zombie, or reports no move.
func (g *Game) zombieStep(z Point, occupied map[Point]bool) (Point, bool) {
	dx := g.player.X - z.X
	dy := g.player.Y - z.Y
	if dx == 0 && dy == 0 {
		return Point{}, false
	}

	horizontal := Point{X: z.X + sign(dx), Y: z.Y}
	vertical := Point{X: z.X, Y: z.Y + sign(dy)}

	// Larger axis first; ties prefer horizontal.
	candidates := make([]Point, 0, 2)
	if abs(dx) >= abs(dy) {
		if dx != 0 {
			candidates = append(candidates, horizontal)
		}
		if dy != 0 {
			candidates = append(candidates, vertical)
		}
	} else {
		candidates = append(candidates, vertical)
		if dx != 0 {
			candidates = append(candidates, horizontal)
		}
	}

	for _, c := range candidates {
		if !g.inBounds(c) || g.obstacles[c] {
			continue
		}
		if occupied[c] && c != g.player {
			continue
		}
		return c, true
	}
	return Point{}, false
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func (g *Game) zombieAt(p Point) bool {
	for _, z := range g.zombies {
		if z == p {
			return true
		}
	}
	return false
}

// resolveCollision applies one zombie hit: a shield absorbs it, otherwise
// a life is lost. All zombies on the player's cell are removed so the next
// move does not immediately hit again.
func (g *Game) resolveCollision(lifeLost, shieldUsed *bool) {
	if g.shields > 0 {
		g.shields--
		*shieldUsed = true
	} else {
		*lifeLost = true
		g.lives--
		if g.lives <= 0 {
			g.lives = 0
			g.gameOver = true
		}
	}

	kept := g.zombies[:0]
	for _, z := range g.zombies {
		if z != g.player {
			kept = append(kept, z)
		}
	}
	g.zombies = kept
}

// PortalActive reports whether the player has collected enough items to
// use the portal.
func (g *Game) PortalActive() bool {
	return g.TotalCollected() >= g.requiredItems
}

// TotalCollected returns the number of items collected this level.
func (g *Game) TotalCollected() int {
	total := 0
	for _, n := range g.collected {
		total += n
	}
	return total
}

// AddShield grants one collision-absorbing shield.
func (g *Game) AddShield() {
	g.shields++
}

// AddLife grants one extra life, capped at twice the configured maximum.
//
// Postcondition: Returns true when a life was added, false at the cap or
// after game over.
func (g *Game) AddLife() bool {
	if g.gameOver || g.lives >= g.maxLives*2 {
		return false
	}
	g.lives++
	return true
}

// Accessors used by rendering, dispatch, and tests.

// Level returns the current 1-based level number.
func (g *Game) Level() int { return g.level }

// Size returns the field width and height.
func (g *Game) Size() (width, height int) { return g.width, g.height }

// PlayerPos returns the player's cell.
func (g *Game) PlayerPos() Point { return g.player }

// Lives returns the remaining life count.
func (g *Game) Lives() int { return g.lives }

// MaxLives returns the configured starting life count.
func (g *Game) MaxLives() int { return g.maxLives }

// Shields returns the number of unspent shields.
func (g *Game) Shields() int { return g.shields }

// Over reports whether the session is terminal.
func (g *Game) Over() bool { return g.gameOver }

// RequiredItems returns how many items the portal demands this level.
func (g *Game) RequiredItems() int { return g.requiredItems }

// ItemsPlaced returns how many items the current level started with.
func (g *Game) ItemsPlaced() int { return g.itemsPlaced }

// ItemsRemaining returns how many items are still on the field.
func (g *Game) ItemsRemaining() int { return len(g.items) }

// Collected returns a copy of the per-kind collection counts.
func (g *Game) Collected() map[ItemType]int {
	out := make(map[ItemType]int, len(g.collected))
	for k, v := range g.collected {
		out[k] = v
	}
	return out
}

// Zombies returns a copy of the current zombie positions.
func (g *Game) Zombies() []Point {
	out := make([]Point, len(g.zombies))
	copy(out, g.zombies)
	return out
}

// ObstacleAt reports whether p holds an obstacle.
func (g *Game) ObstacleAt(p Point) bool { return g.obstacles[p] }

// ItemAt returns the item on p, if any.
func (g *Game) ItemAt(p Point) (ItemType, bool) {
	kind, ok := g.items[p]
	return kind, ok
}

// PortalPos returns the portal cell.
func (g *Game) PortalPos() Point { return g.portal }
