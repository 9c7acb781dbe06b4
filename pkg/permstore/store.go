package permstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/avelara/instagate/domains/permission"
	pkgError "github.com/avelara/instagate/pkg/error"
)

const currentVersion = 1

// Store persists the permission record as a single JSON file. The
// backing file is the only shared mutable resource in the gateway, so
// every mutation goes through Update, which holds a process-wide lock
// across the whole load-modify-persist cycle. Concurrent grants for
// different targets therefore both land instead of the last writer
// silently dropping the earlier one.
type Store struct {
	path      string
	seedAdmin int64

	mu sync.Mutex
}

func New(path string, seedAdmin int64) *Store {
	return &Store{path: path, seedAdmin: seedAdmin}
}

// Load reads the persisted record. A missing or corrupt file yields a
// versioned default instead of an error; a defaulted store denies all
// gated actions until an admin identity is configured. Other I/O
// failures surface as PersistenceError.
func (s *Store) Load() (permission.Snapshot, error) {
	snapshot := s.defaultSnapshot()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot, nil
	}
	if err != nil {
		return snapshot, pkgError.PersistenceError(fmt.Sprintf("read permission store: %v", err))
	}

	if err := json.Unmarshal(data, &snapshot); err != nil {
		logrus.WithError(err).Warnf("[PERMSTORE] Corrupt record at %s, falling back to defaults", s.path)
		return s.defaultSnapshot(), nil
	}

	if snapshot.Version == 0 {
		snapshot.Version = currentVersion
	}
	if snapshot.AllowedIDs == nil {
		snapshot.AllowedIDs = []int64{}
	}
	if !snapshot.Configured() && s.seedAdmin != 0 {
		snapshot.AdminID = s.seedAdmin
	}
	return snapshot, nil
}

// Persist durably overwrites the record. The write goes to a temp file
// in the same directory followed by a rename, so a crash mid-write
// never leaves the store unreadable.
func (s *Store) Persist(snapshot permission.Snapshot) error {
	if snapshot.AllowedIDs == nil {
		snapshot.AllowedIDs = []int64{}
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("encode permission store: %v", err))
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("create store directory: %v", err))
	}

	tmp, err := os.CreateTemp(dir, ".permissions-*.json")
	if err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("create temp store file: %v", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgError.PersistenceError(fmt.Sprintf("write temp store file: %v", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgError.PersistenceError(fmt.Sprintf("close temp store file: %v", err))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return pkgError.PersistenceError(fmt.Sprintf("chmod temp store file: %v", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return pkgError.PersistenceError(fmt.Sprintf("replace store file: %v", err))
	}
	return nil
}

// Update runs fn against the current record and persists the result,
// serialized under the store lock. Returning an error from fn aborts
// the update without touching the file.
func (s *Store) Update(fn func(snapshot *permission.Snapshot) error) (permission.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.Load()
	if err != nil {
		return snapshot, err
	}
	if err := fn(&snapshot); err != nil {
		return snapshot, err
	}
	if err := s.Persist(snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

func (s *Store) defaultSnapshot() permission.Snapshot {
	return permission.Snapshot{
		Version:    currentVersion,
		AdminID:    s.seedAdmin,
		AllowedIDs: []int64{},
	}
}
