// Package shop sells XP-priced power-ups and persists per-guild player
// inventories as one JSON document per guild.
package shop

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ryebridge/gridkeeper/internal/score"
)

// Sentinel errors.
var (
	// ErrStorage marks a persistence I/O failure.
	ErrStorage = errors.New("shop storage failure")
	// ErrUnknownItem marks a purchase of an item not in the catalog.
	ErrUnknownItem = errors.New("unknown shop item")
	// ErrMaxStack marks a purchase that would exceed the item's stack limit.
	ErrMaxStack = errors.New("item stack limit reached")
	// ErrNotOwned marks a consume of an item the player does not hold.
	ErrNotOwned = errors.New("item not owned")
)

// Item IDs in the stock catalog.
const (
	Shield     = "shield"
	ExtraHeart = "extra_heart"
	SpeedBoost = "speed_boost"
)

// Item is one purchasable power-up.
type Item struct {
	ID          string
	Name        string
	Emoji       string
	Description string
	// Cost is the XP price per unit.
	Cost int
	// MaxStack caps how many units a player may hold.
	MaxStack int
}

// Catalog returns the purchasable items in display order.
func Catalog() []Item {
	return []Item{
		{ID: Shield, Name: "Shield", Emoji: "🛡️", Description: "Blocks one zombie hit", Cost: 500, MaxStack: 10},
		{ID: ExtraHeart, Name: "Extra Heart", Emoji: "💚", Description: "Adds +1 life to your current lives", Cost: 750, MaxStack: 5},
		{ID: SpeedBoost, Name: "Speed Boost", Emoji: "⚡", Description: "Move twice per reaction for 5 moves", Cost: 1000, MaxStack: 5},
	}
}

// ItemByID returns the catalog entry for id.
//
// Postcondition: Returns an error wrapping ErrUnknownItem for IDs not in
// the catalog.
func ItemByID(id string) (Item, error) {
	for _, item := range Catalog() {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
}

// Store persists per-guild inventories. All methods are safe for
// concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating inventory dir %s: %v", ErrStorage, dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

// inventories maps playerID → itemID → count.
type inventories map[string]map[string]int

func (s *Store) load(guildID string) (inventories, error) {
	data, err := os.ReadFile(s.path(guildID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(inventories), nil
		}
		return nil, fmt.Errorf("%w: reading inventories for guild %s: %v", ErrStorage, guildID, err)
	}

	inv := make(inventories)
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("%w: parsing inventories for guild %s: %v", ErrStorage, guildID, err)
	}
	return inv, nil
}

func (s *Store) save(guildID string, inv inventories) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding inventories for guild %s: %v", ErrStorage, guildID, err)
	}

	tmp, err := os.CreateTemp(s.dir, guildID+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing inventories for guild %s: %v", ErrStorage, guildID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.path(guildID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing inventories for guild %s: %v", ErrStorage, guildID, err)
	}
	return nil
}

// Inventory returns the player's item counts, empty for unknown players.
func (s *Store) Inventory(guildID, playerID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load(guildID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for id, count := range inv[playerID] {
		if count > 0 {
			out[id] = count
		}
	}
	return out, nil
}

// Purchase spends the item's XP cost through the score store and adds one
// unit to the player's inventory.
//
// Postcondition: On any failure (unknown item, stack limit, insufficient
// XP, storage) neither inventory nor XP balance changes; a storage failure
// after the spend refunds the XP.
func (s *Store) Purchase(guildID, playerID, itemID string, scores *score.Store) (Item, error) {
	item, err := ItemByID(itemID)
	if err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load(guildID)
	if err != nil {
		return Item{}, err
	}
	held := inv[playerID][item.ID]
	if held >= item.MaxStack {
		return Item{}, fmt.Errorf("%w: %s caps at %d", ErrMaxStack, item.Name, item.MaxStack)
	}

	if _, err := scores.SpendXP(guildID, playerID, item.Cost); err != nil {
		return Item{}, err
	}

	if inv[playerID] == nil {
		inv[playerID] = make(map[string]int)
	}
	inv[playerID][item.ID] = held + 1

	if err := s.save(guildID, inv); err != nil {
		// The spend went through but the inventory write failed; put the
		// XP back so the player is not charged for nothing.
		if _, refundErr := scores.AddXP(guildID, playerID, item.Cost); refundErr != nil {
			return Item{}, fmt.Errorf("saving inventory: %v (refund also failed: %w)", err, refundErr)
		}
		return Item{}, err
	}
	return item, nil
}

// Consume removes one unit of the item from the player's inventory.
//
// Postcondition: Fails with ErrNotOwned (nothing persisted) when the
// player holds none.
func (s *Store) Consume(guildID, playerID, itemID string) error {
	if _, err := ItemByID(itemID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.load(guildID)
	if err != nil {
		return err
	}
	if inv[playerID][itemID] <= 0 {
		return fmt.Errorf("%w: %s", ErrNotOwned, itemID)
	}
	inv[playerID][itemID]--
	if inv[playerID][itemID] == 0 {
		delete(inv[playerID], itemID)
	}
	return s.save(guildID, inv)
}
