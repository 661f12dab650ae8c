package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelSpec describes the field layout for one level: dimensions, obstacle
// density, how many items the portal requires, and the zombie population.
type LevelSpec struct {
	// Level is the 1-based level number this row applies to.
	Level int `yaml:"level"`
	// Width and Height are the playable field dimensions for the level.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// MinItems and MaxItems bound the randomized portal requirement.
	MinItems int `yaml:"min_items"`
	MaxItems int `yaml:"max_items"`
	// Obstacles is the number of obstacle cells to place.
	Obstacles int `yaml:"obstacles"`
	// MinZombies and MaxZombies bound the randomized zombie count.
	MinZombies int `yaml:"min_zombies"`
	MaxZombies int `yaml:"max_zombies"`
}

// LevelTable maps level numbers to specs. Levels past the last row fall
// back to the Default row, so the game scales indefinitely.
type LevelTable struct {
	// Rows holds per-level specs, keyed by LevelSpec.Level.
	Rows map[int]LevelSpec
	// Default is used for any level without an explicit row.
	Default LevelSpec
}

// yamlLevelFile is the on-disk YAML structure for level tables.
type yamlLevelFile struct {
	Levels  []LevelSpec `yaml:"levels"`
	Default LevelSpec   `yaml:"default"`
}

// DefaultLevelTable returns the built-in level progression: small fields
// with few hazards early, growing in every dimension through level five.
func DefaultLevelTable() LevelTable {
	rows := []LevelSpec{
		{Level: 1, Width: 8, Height: 5, MinItems: 2, MaxItems: 3, Obstacles: 2, MinZombies: 0, MaxZombies: 1},
		{Level: 2, Width: 10, Height: 6, MinItems: 3, MaxItems: 4, Obstacles: 3, MinZombies: 1, MaxZombies: 2},
		{Level: 3, Width: 12, Height: 7, MinItems: 4, MaxItems: 5, Obstacles: 4, MinZombies: 1, MaxZombies: 3},
		{Level: 4, Width: 14, Height: 8, MinItems: 5, MaxItems: 6, Obstacles: 5, MinZombies: 2, MaxZombies: 3},
		{Level: 5, Width: 16, Height: 9, MinItems: 6, MaxItems: 7, Obstacles: 6, MinZombies: 2, MaxZombies: 4},
	}
	table := LevelTable{
		Rows:    make(map[int]LevelSpec, len(rows)),
		Default: LevelSpec{Width: 18, Height: 10, MinItems: 7, MaxItems: 8, Obstacles: 7, MinZombies: 3, MaxZombies: 5},
	}
	for _, r := range rows {
		table.Rows[r.Level] = r
	}
	return table
}

// LoadLevelTable reads and validates a level table from a YAML file.
//
// Precondition: path must point to a YAML file with a levels list and a
// default row.
// Postcondition: Returns a validated LevelTable or a non-nil error.
func LoadLevelTable(path string) (LevelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LevelTable{}, fmt.Errorf("reading level table %s: %w", path, err)
	}
	return ParseLevelTable(data)
}

// ParseLevelTable parses and validates a level table from YAML bytes.
func ParseLevelTable(data []byte) (LevelTable, error) {
	var file yamlLevelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return LevelTable{}, fmt.Errorf("parsing level table YAML: %w", err)
	}

	table := LevelTable{
		Rows:    make(map[int]LevelSpec, len(file.Levels)),
		Default: file.Default,
	}
	for _, row := range file.Levels {
		if _, dup := table.Rows[row.Level]; dup {
			return LevelTable{}, fmt.Errorf("level table: duplicate row for level %d", row.Level)
		}
		table.Rows[row.Level] = row
	}

	if err := table.Validate(); err != nil {
		return LevelTable{}, fmt.Errorf("validating level table: %w", err)
	}
	return table, nil
}

// Validate checks every row and the default row for playable values.
//
// Postcondition: Returns nil if every spec has positive dimensions, a sane
// item range, and non-negative hazard counts that leave free cells.
func (t LevelTable) Validate() error {
	for level, spec := range t.Rows {
		if spec.Level != level {
			return fmt.Errorf("level %d: row key does not match spec level %d", level, spec.Level)
		}
		if err := spec.validate(); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
	}
	if err := t.Default.validate(); err != nil {
		return fmt.Errorf("default row: %w", err)
	}
	return nil
}

func (s LevelSpec) validate() error {
	if s.Width < 3 || s.Height < 3 {
		return fmt.Errorf("field %dx%d too small", s.Width, s.Height)
	}
	if s.MinItems < 1 || s.MaxItems < s.MinItems {
		return fmt.Errorf("item range [%d,%d] invalid", s.MinItems, s.MaxItems)
	}
	if s.Obstacles < 0 || s.MinZombies < 0 || s.MaxZombies < s.MinZombies {
		return fmt.Errorf("hazard counts (obstacles=%d zombies=[%d,%d]) invalid", s.Obstacles, s.MinZombies, s.MaxZombies)
	}
	// The field must keep room for the player, the portal, the maximum item
	// spread, and every hazard.
	occupied := s.Obstacles + s.MaxZombies + s.MaxItems + 4 + 2
	if occupied >= s.Width*s.Height {
		return fmt.Errorf("field %dx%d cannot hold %d entities", s.Width, s.Height, occupied)
	}
	return nil
}

// SpecFor returns the spec for the given level, substituting the default
// row for levels without an explicit entry.
func (t LevelTable) SpecFor(level int) LevelSpec {
	if spec, ok := t.Rows[level]; ok {
		return spec
	}
	spec := t.Default
	spec.Level = level
	return spec
}
