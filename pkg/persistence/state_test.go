package persistence

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStateStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := NewDirStateStore(filepath.Join(t.TempDir(), "nested"))

		state := NewPluginState("demo")
		if err := state.Remember("zw-12", 101); err != nil {
			t.Fatalf("Remember() error = %v", err)
		}
		if err := state.Remember("zw-12/level", 102); err != nil {
			t.Fatalf("Remember() error = %v", err)
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if state.SavedAt.IsZero() {
			t.Error("Save() did not stamp SavedAt")
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.PluginID != "demo" {
			t.Errorf("PluginID = %q", got.PluginID)
		}
		if !reflect.DeepEqual(got.Refs, state.Refs) {
			t.Errorf("Refs = %v, want %v", got.Refs, state.Refs)
		}
		if ref, ok := got.Lookup("zw-12/level"); !ok || ref != 102 {
			t.Errorf("Lookup() = %d, %v", ref, ok)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		first := NewPluginState("demo")
		_ = first.Remember("a", 1)
		if err := store.Save(first); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		second := NewPluginState("demo")
		_ = second.Remember("b", 2)
		if err := store.Save(second); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Addresses()[0] != "b" || len(got.Refs) != 1 {
			t.Errorf("Refs = %v, want only b", got.Refs)
		}

		entries, err := os.ReadDir(filepath.Dir(store.Path()))
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("state dir holds %d files, want 1", len(entries))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() on missing file error = %v", err)
		}
		if err := store.Save(NewPluginState("demo")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := store.Load()
		if err != nil || got != nil {
			t.Errorf("Load() after Clear = %v, %v", got, err)
		}
	})

	t.Run("LoadOrNew", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		state, err := store.LoadOrNew("demo")
		if err != nil {
			t.Fatalf("LoadOrNew() error = %v", err)
		}
		if state.PluginID != "demo" || state.Refs == nil {
			t.Errorf("LoadOrNew() = %+v", state)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("Load() of corrupt file should fail")
		}
	})

	t.Run("FutureVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("Load() of newer state version should fail")
		}
	})
}

func TestPluginState(t *testing.T) {
	state := NewPluginState("demo")

	if err := state.Remember("", 1); err == nil {
		t.Error("Remember() with empty address should fail")
	}
	if err := state.Remember("x", 0); err == nil {
		t.Error("Remember() with ref 0 should fail")
	}

	_ = state.Remember("z", 3)
	_ = state.Remember("a", 1)
	if got := state.Addresses(); !reflect.DeepEqual(got, []string{"a", "z"}) {
		t.Errorf("Addresses() = %v", got)
	}

	if !state.Forget("a") {
		t.Error("Forget(a) = false")
	}
	if state.Forget("a") {
		t.Error("second Forget(a) = true")
	}
	if _, ok := state.Lookup("a"); ok {
		t.Error("Lookup() found forgotten address")
	}
}
