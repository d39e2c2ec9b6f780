// Package state implements the durable record of what declarch has
// installed: a versioned, lock-guarded JSON file keyed by canonical
// package identity, written atomically with rotating backups (§3 "State
// record", §4.5).
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/declarch-sh/declarch/internal/identity"
	"github.com/declarch-sh/declarch/internal/lockutil"
)

// CurrentVersion is the state file format version written by this build.
// Migrate brings any older on-disk version up to this one before it is
// returned to callers.
const CurrentVersion = 1

// maxBackups bounds the number of rotated backup generations kept on disk.
const maxBackups = 5

// lockTimeout bounds how long Store waits to acquire the advisory lock
// before giving up with ErrLocked.
const lockTimeout = 5 * time.Second

// ErrLocked is returned when the state file's advisory lock could not be
// acquired within lockTimeout, meaning another declarch process is
// currently mutating state.
var ErrLocked = errors.New("state file is locked by another process")

// ManagedBy records how a package entered managed state.
type ManagedBy string

const (
	ManagedByDeclarch ManagedBy = "declarch" // installed by a prior sync
	ManagedByAdopted  ManagedBy = "adopted"  // was already installed, brought under management
)

// Record is one managed package's durable state (§3 "State record",
// invariants I1-I5: every key parses as backend:name, no duplicates,
// InstalledAt is immutable once set, LastSyncedAt only moves forward,
// ManagedBy is one of the two declared values).
type Record struct {
	Backend      string    `json:"backend"`
	Name         string    `json:"name"`
	Variant      string    `json:"variant,omitempty"`
	Version      string    `json:"version,omitempty"`
	ManagedBy    ManagedBy `json:"managed_by"`
	InstalledAt  time.Time `json:"installed_at"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Key returns the record's canonical identity.
func (r Record) Key() identity.Key {
	return identity.Key{Backend: r.Backend, Name: r.Name}
}

// State is the full set of managed-package records, keyed by canonical
// "backend:name" string.
type State struct {
	Version int               `json:"version"`
	Records map[string]Record `json:"records"`
}

// New returns an empty State at the current format version.
func New() *State {
	return &State{Version: CurrentVersion, Records: make(map[string]Record)}
}

// Put inserts or replaces a record, preserving InstalledAt across updates
// to the same key (I3: install time is immutable once recorded).
func (s *State) Put(r Record) {
	if s.Records == nil {
		s.Records = make(map[string]Record)
	}
	key := r.Key().String()
	if existing, ok := s.Records[key]; ok {
		r.InstalledAt = existing.InstalledAt
	}
	s.Records[key] = r
}

// Remove deletes a record by key.
func (s *State) Remove(k identity.Key) {
	delete(s.Records, k.String())
}

// Get looks up a record by key.
func (s *State) Get(k identity.Key) (Record, bool) {
	r, ok := s.Records[k.String()]
	return r, ok
}

// ForBackend returns every record belonging to the given backend.
func (s *State) ForBackend(backend string) []Record {
	var out []Record
	for _, r := range s.Records {
		if r.Backend == backend {
			out = append(out, r)
		}
	}
	return out
}

// Store is the on-disk state manager: it owns the advisory lock and the
// atomic write/backup-rotation discipline. NewStore builds one over the
// standard XDG-derived paths from internal/identity; a zero Store has no
// paths set.
type Store struct {
	statePath string
	lockPath  string
}

// NewStore builds a Store over the standard state/lock paths.
func NewStore() (*Store, error) {
	statePath, err := identity.StatePath()
	if err != nil {
		return nil, err
	}
	lockPath, err := identity.LockPath()
	if err != nil {
		return nil, err
	}
	return &Store{statePath: statePath, lockPath: lockPath}, nil
}

// NewStoreAt builds a Store rooted at an explicit state file path, used by
// tests and by callers that override XDG discovery.
func NewStoreAt(statePath string) *Store {
	return &Store{statePath: statePath, lockPath: statePath + ".lock"}
}

// Exists reports whether a state file is present on disk.
func (st *Store) Exists() bool {
	_, err := os.Stat(st.statePath)
	return err == nil
}

// Load reads and migrates the state file in non-strict (sanitizing) mode:
// a record whose key does not parse as backend:name is dropped rather than
// aborting the whole load, and the drop is reported as a warning. A
// missing file is not an error: it returns a fresh empty State, matching a
// first-run declarch install.
func (st *Store) Load() (*State, []string, error) {
	return st.load(false)
}

// LoadStrict reads and migrates the state file in strict mode: any record
// whose key does not parse as backend:name aborts the load with an error
// instead of being sanitized away. Intended for tooling that wants to
// surface state corruption loudly rather than silently continue on a
// reduced record set.
func (st *Store) LoadStrict() (*State, error) {
	s, _, err := st.load(true)
	return s, err
}

func (st *Store) load(strict bool) (*State, []string, error) {
	data, err := os.ReadFile(st.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s, warnings, decodeErr := decode(data, strict)
	if decodeErr == nil {
		return migrate(s), warnings, nil
	}
	if strict {
		return nil, nil, decodeErr
	}

	// The primary file failed to parse: fall back through numbered backups
	// in descending recency, using the first one that parses (§4.5 Recovery).
	for gen := 1; gen <= maxBackups; gen++ {
		backupPath := fmt.Sprintf("%s.backup.%d", st.statePath, gen)
		backupData, readErr := os.ReadFile(backupPath)
		if readErr != nil {
			continue
		}
		recovered, recoveredWarnings, recoverErr := decode(backupData, strict)
		if recoverErr == nil {
			recoveredWarnings = append(recoveredWarnings, fmt.Sprintf(
				"state file failed to parse (%v); recovered from %s", decodeErr, backupPath))
			return migrate(recovered), recoveredWarnings, nil
		}
	}

	// Every generation failed to parse: start from empty rather than abort,
	// and leave the corrupt file untouched until the next successful write.
	return New(), []string{fmt.Sprintf(
		"state file and all backups failed to parse (%v); starting from empty state", decodeErr)}, nil
}

// decode parses state JSON. In strict mode, a malformed record key aborts
// with an error; in non-strict mode the record is dropped and a warning is
// returned describing the original key for traceability.
func decode(data []byte, strict bool) (*State, []string, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if s.Records == nil {
		s.Records = make(map[string]Record)
	}

	var warnings []string
	sanitized := make(map[string]Record, len(s.Records))
	for key, rec := range s.Records {
		if _, err := identity.ParseKey(key); err != nil {
			if strict {
				return nil, nil, fmt.Errorf("state file contains invalid key %q: %w", key, err)
			}
			warnings = append(warnings, fmt.Sprintf("dropped malformed state key %q: %v", key, err))
			continue
		}
		sanitized[key] = rec
	}
	s.Records = sanitized
	return &s, warnings, nil
}

func migrate(s *State) *State {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	return s
}

// Save acquires the advisory lock, writes a numbered backup of the
// existing file (if any), then atomically replaces the state file via a
// temp-file write, fsync, and rename (§4.5).
func (st *Store) Save(s *State) error {
	return st.withLock(func() error {
		if st.Exists() {
			if err := st.rotateBackups(); err != nil {
				return err
			}
		}

		s.Version = CurrentVersion
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}

		dir := filepath.Dir(st.statePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}

		return atomicWrite(st.statePath, data)
	})
}

// atomicWrite writes data to a temp file in the same directory as path,
// fsyncs it, then renames it over path so readers never observe a
// partially written state file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to fsync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp state file into place: %w", err)
	}
	return nil
}

// rotateBackups shifts state.json.backup.N to N+1 (dropping anything past
// maxBackups) and copies the current state file into .backup.1.
func (st *Store) rotateBackups() error {
	for gen := maxBackups - 1; gen >= 1; gen-- {
		src := fmt.Sprintf("%s.backup.%d", st.statePath, gen)
		dst := fmt.Sprintf("%s.backup.%d", st.statePath, gen+1)
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("failed to rotate backup %s: %w", src, err)
			}
		}
	}

	data, err := os.ReadFile(st.statePath)
	if err != nil {
		return fmt.Errorf("failed to read state file for backup: %w", err)
	}
	backupPath := fmt.Sprintf("%s.backup.1", st.statePath)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup %s: %w", backupPath, err)
	}
	return nil
}

// Delete removes the state file. It is not an error if none exists.
func (st *Store) Delete() error {
	return st.withLock(func() error {
		if err := os.Remove(st.statePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete state file: %w", err)
		}
		return nil
	})
}

// withLock acquires the advisory file lock guarding state.json, bounded by
// lockTimeout, runs fn, and releases the lock on return.
func (st *Store) withLock(fn func() error) error {
	dir := filepath.Dir(st.lockPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := lockutil.WithLock(st.lockPath, lockTimeout, fn); err != nil {
		if errors.Is(err, lockutil.ErrLocked) {
			return ErrLocked
		}
		return err
	}
	return nil
}
