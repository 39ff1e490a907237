package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// SelectionStore persists the manually selected actor id across sessions.
// It holds a single durable key; the resolver is the only writer.
type SelectionStore interface {
	// Load returns the persisted actor id, and whether one is set.
	Load() (int64, bool, error)
	// Save persists the actor id.
	Save(id int64) error
	// Clear removes the persisted selection.
	Clear() error
}

// MemoryStore is an in-process SelectionStore, mainly for tests.
type MemoryStore struct {
	mu  sync.Mutex
	id  int64
	set bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.set, nil
}

func (m *MemoryStore) Save(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id, m.set = id, true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id, m.set = 0, false
	return nil
}

// selectionState is the on-disk form. The id is string-encoded to match
// the durable key-value convention of the browser client.
type selectionState struct {
	SelectedActorID string `toml:"selected_actor_id"`
}

// FileStore persists the selection in a small TOML state file. Last write
// wins across processes, consistent with standard storage semantics.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (int64, bool, error) {
	var st selectionState
	if _, err := toml.DecodeFile(f.path, &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read selection state: %w", err)
	}
	if st.SelectedActorID == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(st.SelectedActorID, 10, 64)
	if err != nil {
		// A corrupt value behaves like no selection; the next Save
		// overwrites it.
		return 0, false, nil
	}
	return id, true, nil
}

func (f *FileStore) Save(id int64) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	file, err := os.Create(f.path)
	if err != nil {
		return fmt.Errorf("write selection state: %w", err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(selectionState{
		SelectedActorID: strconv.FormatInt(id, 10),
	})
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear selection state: %w", err)
	}
	return nil
}
