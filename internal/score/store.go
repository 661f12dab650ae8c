// Package score persists per-guild player statistics, XP balances, and
// unlocked achievements as one JSON document per guild.
package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Sentinel errors.
var (
	// ErrStorage marks a persistence I/O failure.
	ErrStorage = errors.New("score storage failure")
	// ErrInsufficientXP marks a spend larger than the player's balance.
	ErrInsufficientXP = errors.New("not enough XP")
)

// Stats is one player's lifetime record on one guild.
type Stats struct {
	Wins            int `json:"wins"`
	HighestLevel    int `json:"highest_level"`
	ItemsCollected  int `json:"items_collected"`
	GamesPlayed     int `json:"games_played"`
	LevelsCompleted int `json:"levels_completed"`
	GamesCompleted  int `json:"games_completed"`
	Deaths          int `json:"deaths"`
	XP              int `json:"xp"`
	// Achievements holds unlocked achievement IDs.
	Achievements []string `json:"achievements,omitempty"`
}

// StatNames lists the leaderboard-sortable statistics.
var StatNames = []string{
	"wins", "highest_level", "items_collected", "games_played",
	"levels_completed", "games_completed", "deaths", "xp",
}

// statOf returns the named stat value; unknown names return 0.
func (s Stats) statOf(name string) int {
	switch name {
	case "wins":
		return s.Wins
	case "highest_level":
		return s.HighestLevel
	case "items_collected":
		return s.ItemsCollected
	case "games_played":
		return s.GamesPlayed
	case "levels_completed":
		return s.LevelsCompleted
	case "games_completed":
		return s.GamesCompleted
	case "deaths":
		return s.Deaths
	case "xp":
		return s.XP
	default:
		return 0
	}
}

// HasAchievement reports whether the achievement ID is unlocked.
func (s Stats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// AsMap returns the numeric stats keyed by name, the shape achievement
// predicates evaluate against.
func (s Stats) AsMap() map[string]int {
	m := make(map[string]int, len(StatNames))
	for _, name := range StatNames {
		m[name] = s.statOf(name)
	}
	return m
}

// Entry is one leaderboard row.
type Entry struct {
	PlayerID string
	Value    int
}

// Store persists guild score documents. All methods are safe for
// concurrent use; mutations run load-modify-save under one lock.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating score dir %s: %v", ErrStorage, dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

// load reads the guild document without locking.
func (s *Store) load(guildID string) (map[string]*Stats, error) {
	data, err := os.ReadFile(s.path(guildID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]*Stats), nil
		}
		return nil, fmt.Errorf("%w: reading scores for guild %s: %v", ErrStorage, guildID, err)
	}

	scores := make(map[string]*Stats)
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("%w: parsing scores for guild %s: %v", ErrStorage, guildID, err)
	}
	return scores, nil
}

// save writes the guild document atomically without locking.
func (s *Store) save(guildID string, scores map[string]*Stats) error {
	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding scores for guild %s: %v", ErrStorage, guildID, err)
	}

	tmp, err := os.CreateTemp(s.dir, guildID+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing scores for guild %s: %v", ErrStorage, guildID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.path(guildID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing scores for guild %s: %v", ErrStorage, guildID, err)
	}
	return nil
}

// Get returns the player's stats, zero-valued for unknown players.
func (s *Store) Get(guildID, playerID string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load(guildID)
	if err != nil {
		return Stats{}, err
	}
	if st, ok := scores[playerID]; ok {
		return *st, nil
	}
	return Stats{}, nil
}

// Mutate applies fn to the player's stats and persists the result.
//
// Postcondition: Returns the updated stats. On error nothing is persisted.
func (s *Store) Mutate(guildID, playerID string, fn func(*Stats) error) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load(guildID)
	if err != nil {
		return Stats{}, err
	}
	st, ok := scores[playerID]
	if !ok {
		st = &Stats{}
		scores[playerID] = st
	}
	if err := fn(st); err != nil {
		return *st, err
	}
	if err := s.save(guildID, scores); err != nil {
		return *st, err
	}
	return *st, nil
}

// RecordGameStart counts a new game.
func (s *Store) RecordGameStart(guildID, playerID string) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.GamesPlayed++
		return nil
	})
}

// RecordItemCollected counts one collected item and grants pickup XP.
func (s *Store) RecordItemCollected(guildID, playerID string, xp int) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.ItemsCollected++
		st.XP += xp
		return nil
	})
}

// RecordLevelComplete counts a completed level, tracks the highest level
// reached, and grants completion XP.
func (s *Store) RecordLevelComplete(guildID, playerID string, level, xp int) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.LevelsCompleted++
		st.XP += xp
		if level > st.HighestLevel {
			st.HighestLevel = level
		}
		return nil
	})
}

// RecordGameOver counts a death-ending game.
func (s *Store) RecordGameOver(guildID, playerID string) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.Deaths++
		return nil
	})
}

// RecordWin counts a completed run.
func (s *Store) RecordWin(guildID, playerID string, xp int) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.Wins++
		st.GamesCompleted++
		st.XP += xp
		return nil
	})
}

// AddXP grants XP (achievement rewards).
func (s *Store) AddXP(guildID, playerID string, xp int) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		st.XP += xp
		return nil
	})
}

// SpendXP deducts XP for a purchase.
//
// Postcondition: Fails with ErrInsufficientXP (nothing persisted) when the
// balance is too small; the balance never goes negative.
func (s *Store) SpendXP(guildID, playerID string, xp int) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		if st.XP < xp {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientXP, st.XP, xp)
		}
		st.XP -= xp
		return nil
	})
}

// Unlock records an achievement as unlocked. Unlocking twice is a no-op.
func (s *Store) Unlock(guildID, playerID, achievementID string) (Stats, error) {
	return s.Mutate(guildID, playerID, func(st *Stats) error {
		if st.HasAchievement(achievementID) {
			return nil
		}
		st.Achievements = append(st.Achievements, achievementID)
		return nil
	})
}

// Leaderboard returns up to limit players sorted descending by the named
// stat, ties broken by player ID for stable output.
func (s *Store) Leaderboard(guildID, stat string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores, err := s.load(guildID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(scores))
	for playerID, st := range scores {
		entries = append(entries, Entry{PlayerID: playerID, Value: st.statOf(stat)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
