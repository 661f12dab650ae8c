// Package achievements defines XP-rewarding achievements whose unlock
// conditions are Lua predicates evaluated against a player's statistics.
// The built-in set can be replaced or extended from a YAML file, letting
// operators add achievements without recompiling.
package achievements

import (
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// ErrNotFound marks a lookup of an unknown achievement ID.
var ErrNotFound = errors.New("achievement not found")

// Achievement is one unlockable goal.
type Achievement struct {
	// ID is the stable identifier stored in player records.
	ID string `yaml:"id"`
	// Name and Description are shown to players.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Category groups achievements for display.
	Category string `yaml:"category"`
	// XPReward is granted once on unlock.
	XPReward int `yaml:"xp_reward"`
	// Condition is a Lua boolean expression over a `stats` table, e.g.
	// "stats.items_collected >= 10".
	Condition string `yaml:"condition"`
}

// Validate checks the achievement's required fields.
func (a Achievement) Validate() error {
	if a.ID == "" {
		return errors.New("achievement: ID must not be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("achievement %q: name must not be empty", a.ID)
	}
	if a.XPReward < 0 {
		return fmt.Errorf("achievement %q: xp_reward must be >= 0, got %d", a.ID, a.XPReward)
	}
	if a.Condition == "" {
		return fmt.Errorf("achievement %q: condition must not be empty", a.ID)
	}
	return nil
}

// Builtin returns the stock achievement set.
func Builtin() []Achievement {
	return []Achievement{
		{ID: "first_item", Name: "First Collection", Description: "Collect your first item",
			Category: "Collection", XPReward: 50, Condition: "stats.items_collected >= 1"},
		{ID: "collect_10", Name: "Item Collector", Description: "Collect 10 items",
			Category: "Collection", XPReward: 100, Condition: "stats.items_collected >= 10"},
		{ID: "collect_50", Name: "Item Hoarder", Description: "Collect 50 items",
			Category: "Collection", XPReward: 250, Condition: "stats.items_collected >= 50"},
		{ID: "collect_100", Name: "Master Collector", Description: "Collect 100 items",
			Category: "Collection", XPReward: 500, Condition: "stats.items_collected >= 100"},

		{ID: "level_3", Name: "Level Explorer", Description: "Reach level 3",
			Category: "Level Progression", XPReward: 150, Condition: "stats.highest_level >= 3"},
		{ID: "level_5", Name: "Level Master", Description: "Reach level 5",
			Category: "Level Progression", XPReward: 200, Condition: "stats.highest_level >= 5"},
		{ID: "level_10", Name: "Level Champion", Description: "Reach level 10",
			Category: "Level Progression", XPReward: 400, Condition: "stats.highest_level >= 10"},

		{ID: "zombie_survivor", Name: "Zombie Survivor", Description: "Complete a game without dying",
			Category: "Survival", XPReward: 150, Condition: "stats.deaths == 0 and stats.games_completed >= 1"},
		{ID: "perfect_game", Name: "Perfect Game", Description: "Complete 3 games without dying",
			Category: "Survival", XPReward: 300, Condition: "stats.deaths == 0 and stats.games_completed >= 3"},

		{ID: "first_win", Name: "First Victory", Description: "Win your first game",
			Category: "Completion", XPReward: 100, Condition: "stats.wins >= 1"},
		{ID: "win_10", Name: "Victory Master", Description: "Win 10 games",
			Category: "Completion", XPReward: 300, Condition: "stats.wins >= 10"},
		{ID: "complete_5_levels", Name: "Level Completer", Description: "Complete 5 levels",
			Category: "Completion", XPReward: 200, Condition: "stats.levels_completed >= 5"},
		{ID: "complete_20_levels", Name: "Level Expert", Description: "Complete 20 levels",
			Category: "Completion", XPReward: 400, Condition: "stats.levels_completed >= 20"},

		{ID: "play_5_games", Name: "Dedicated Player", Description: "Play 5 games",
			Category: "Activity", XPReward: 100, Condition: "stats.games_played >= 5"},
		{ID: "play_20_games", Name: "Veteran Player", Description: "Play 20 games",
			Category: "Activity", XPReward: 300, Condition: "stats.games_played >= 20"},
	}
}

// yamlAchievementFile is the on-disk YAML structure.
type yamlAchievementFile struct {
	Achievements []Achievement `yaml:"achievements"`
}

// LoadFile reads an achievement set from a YAML file.
//
// Postcondition: Returns at least one validated achievement or a non-nil
// error.
func LoadFile(path string) ([]Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading achievements %s: %w", path, err)
	}

	var file yamlAchievementFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing achievements YAML: %w", err)
	}
	if len(file.Achievements) == 0 {
		return nil, fmt.Errorf("achievements file %s defines no achievements", path)
	}
	return file.Achievements, nil
}

// Registry holds an achievement set and evaluates unlock predicates.
// Registries are immutable after construction and safe for concurrent use;
// each Check builds its own Lua state.
type Registry struct {
	ordered []Achievement
	byID    map[string]Achievement
}

// NewRegistry validates the set, compiles every predicate once to catch
// syntax errors at startup, and returns the registry.
//
// Precondition: achs must be non-empty with unique IDs.
func NewRegistry(achs []Achievement) (*Registry, error) {
	if len(achs) == 0 {
		return nil, errors.New("achievements: registry needs at least one achievement")
	}

	r := &Registry{
		ordered: make([]Achievement, 0, len(achs)),
		byID:    make(map[string]Achievement, len(achs)),
	}

	L := newPredicateState(0)
	defer L.Close()

	for _, a := range achs {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("achievements: duplicate ID %q", a.ID)
		}
		if _, err := L.LoadString("return " + a.Condition); err != nil {
			return nil, fmt.Errorf("achievement %q: bad condition: %w", a.ID, err)
		}
		r.ordered = append(r.ordered, a)
		r.byID[a.ID] = a
	}
	return r, nil
}

// All returns the achievements in registration order.
func (r *Registry) All() []Achievement {
	out := make([]Achievement, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get returns the achievement with the given ID.
//
// Postcondition: Returns an error wrapping ErrNotFound for unknown IDs.
func (r *Registry) Get(id string) (Achievement, error) {
	a, ok := r.byID[id]
	if !ok {
		return Achievement{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return a, nil
}

// ByCategory groups achievement IDs by category, preserving registration
// order within each group.
func (r *Registry) ByCategory() map[string][]Achievement {
	out := make(map[string][]Achievement)
	for _, a := range r.ordered {
		category := a.Category
		if category == "" {
			category = "Other"
		}
		out[category] = append(out[category], a)
	}
	return out
}

// Check evaluates every locked achievement's predicate against stats and
// returns the newly unlocked ones in registration order.
//
// Precondition: unlocked reports whether an ID is already held.
// Postcondition: A predicate that errors at runtime fails the whole check;
// predicates are pure expressions, so this only happens for a bad custom
// set.
func (r *Registry) Check(stats map[string]int, unlocked func(id string) bool) ([]Achievement, error) {
	L := newPredicateState(0)
	defer L.Close()
	L.SetGlobal("stats", statsTable(L, stats))

	var newly []Achievement
	for _, a := range r.ordered {
		if unlocked != nil && unlocked(a.ID) {
			continue
		}
		ok, err := evalPredicate(L, a.Condition)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: evaluating condition: %w", a.ID, err)
		}
		if ok {
			newly = append(newly, a)
		}
	}
	return newly, nil
}

// evalPredicate runs one boolean expression and pops its result.
func evalPredicate(L *lua.LState, condition string) (bool, error) {
	if err := L.DoString("return " + condition); err != nil {
		return false, err
	}
	result := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(result), nil
}
