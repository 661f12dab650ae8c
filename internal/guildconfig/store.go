package guildconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists one JSON document per guild under a directory. Writes are
// atomic (temp file + rename) and serialized by a store-wide lock;
// configuration changes are rare and administrator-gated, so one lock is
// enough.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
//
// Postcondition: Returns a usable Store or an error wrapping ErrStorage.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating config dir %s: %v", ErrStorage, dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

// Load reads the record for guildID. A missing document returns the full
// default record; a document missing fields keeps the default for each
// absent field individually.
//
// Postcondition: Always returns a usable Config. The error (wrapping
// ErrStorage) is non-nil only for unreadable or corrupt documents, in which
// case the defaults are returned alongside it.
func (s *Store) Load(guildID string) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(guildID)
}

// load reads the record without locking.
func (s *Store) load(guildID string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(s.path(guildID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%w: reading config for guild %s: %v", ErrStorage, guildID, err)
	}

	// Unmarshalling over the default record leaves absent keys at their
	// default values — the partial-fallback rule for free.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("%w: parsing config for guild %s: %v", ErrStorage, guildID, err)
	}
	return cfg, nil
}

// Save validates and persists the record for guildID.
//
// Postcondition: On a validation failure (wrapping ErrValidation) nothing
// is written and any prior document is untouched. On success the document
// on disk contains the full field set, written atomically.
func (s *Store) Save(guildID string, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(guildID, cfg)
}

// save validates and writes the record without locking.
func (s *Store) save(guildID string, cfg Config) error {
	if guildID == "" {
		return fmt.Errorf("%w: guild ID must not be empty", ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding config for guild %s: %v", ErrStorage, guildID, err)
	}

	tmp, err := os.CreateTemp(s.dir, guildID+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing config for guild %s: %v", ErrStorage, guildID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, s.path(guildID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing config for guild %s: %v", ErrStorage, guildID, err)
	}
	return nil
}

// Update loads the record for guildID, applies fn, and saves the result.
// The store lock is held for the whole cycle, so concurrent updates never
// lose each other's writes.
//
// Precondition: fn must not call back into the Store.
// Postcondition: Returns the saved Config, or the unmodified stored Config
// alongside the error when fn or the save fails.
func (s *Store) Update(guildID string, fn func(*Config) error) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(guildID)
	if err != nil {
		return cfg, err
	}
	if err := fn(&cfg); err != nil {
		return cfg, err
	}
	if err := s.save(guildID, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
