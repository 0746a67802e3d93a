package persistence

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// StateFileName is the file name used inside a state directory.
const StateFileName = "hspi-state.json"

// PluginState is the runtime state of a plugin.
type PluginState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// PluginID is the interface name of the plugin owning the refs.
	PluginID string `json:"plugin_id,omitempty"`

	// Refs maps entity addresses to controller refs.
	Refs map[string]int `json:"refs,omitempty"`
}

// NewPluginState returns an empty state for pluginID.
func NewPluginState(pluginID string) *PluginState {
	return &PluginState{
		Version:  StateVersion,
		PluginID: pluginID,
		Refs:     make(map[string]int),
	}
}

// Lookup returns the ref remembered for address.
func (s *PluginState) Lookup(address string) (int, bool) {
	ref, ok := s.Refs[address]
	return ref, ok
}

// Remember records that address was created as ref.
func (s *PluginState) Remember(address string, ref int) error {
	if address == "" {
		return fmt.Errorf("remember ref %d: empty address", ref)
	}
	if ref <= 0 {
		return fmt.Errorf("remember %q: invalid ref %d", address, ref)
	}
	if s.Refs == nil {
		s.Refs = make(map[string]int)
	}
	s.Refs[address] = ref
	return nil
}

// Forget drops address. It reports whether the address was known.
func (s *PluginState) Forget(address string) bool {
	_, ok := s.Refs[address]
	delete(s.Refs, address)
	return ok
}

// Addresses returns the remembered addresses in sorted order.
func (s *PluginState) Addresses() []string {
	return slices.Sorted(maps.Keys(s.Refs))
}

// StateStore manages persistence of plugin state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store writing to path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// NewDirStateStore creates a store writing StateFileName inside dir.
func NewDirStateStore(dir string) *StateStore {
	return NewStateStore(filepath.Join(dir, StateFileName))
}

// Path returns the state file path.
func (s *StateStore) Path() string { return s.path }

// Save persists the state to disk. The file is replaced atomically.
func (s *StateStore) Save(state *PluginState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*PluginState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &PluginState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%s: unsupported state version %d", s.path, state.Version)
	}
	if state.Refs == nil {
		state.Refs = make(map[string]int)
	}
	return state, nil
}

// LoadOrNew loads the state, or returns an empty state for pluginID when
// none was saved.
func (s *StateStore) LoadOrNew(pluginID string) (*PluginState, error) {
	state, err := s.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return NewPluginState(pluginID), nil
	}
	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
