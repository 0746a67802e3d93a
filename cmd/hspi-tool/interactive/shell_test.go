package interactive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/energy"
	"github.com/hspi-sdk/hspi-go/pkg/persistence"
)

const templates = `
name: Kitchen dimmer
address: zw-12
features:
  - name: Level
    value: 0
    controls:
      - {type: button, value: 0, label: "Off", use: "off"}
      - type: slider
        range: {min: 1, max: 99, suffix: "%"}
        use: dim
      - {type: button, value: 100, label: "On", use: "on"}
    graphics:
      - {image: images/off.png, value: 0}
      - {image: images/on.png, range: {min: 1, max: 100}}
---
name: Hall Scene
features:
  - name: Scene
    controls:
      - type: radio
        options: {Relax: 1, Read: 2}
`

type fixture struct {
	shell *Shell
	mem   *controller.Memory
	state *persistence.PluginState
	out   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := energy.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := energy.NewSQLiteRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	f := &fixture{
		mem:   controller.NewMemory(controller.MemoryConfig{}),
		state: persistence.NewPluginState("demo"),
		out:   &bytes.Buffer{},
	}
	f.shell = New(Config{
		PluginID:   "demo",
		Controller: f.mem,
		State:      f.state,
		Energy:     repo,
	})
	f.shell.SetOutput(f.out)
	return f
}

// exec runs line and returns what it printed.
func (f *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	assert.False(t, f.shell.Exec(context.Background(), line))
	return f.out.String()
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(templates), 0o644))
	out := f.exec(t, "load "+path)
	require.Contains(t, out, "created zw-12")
	require.Contains(t, out, "created hall-scene")
}

func TestLoadRegistersDevices(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	assert.Len(t, f.mem.DeviceRefs(), 2)
	_, ok := f.state.Lookup("zw-12")
	assert.True(t, ok)
	_, ok = f.state.Lookup("hall-scene/scene")
	assert.True(t, ok)

	out := f.exec(t, "devices")
	assert.Contains(t, out, "Devices (2)")
	assert.Contains(t, out, "Kitchen dimmer")

	out = f.exec(t, "show zw-12")
	assert.Contains(t, out, "zw-12/level")
	assert.Contains(t, out, "images/on.png")
}

func TestLoadTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	path := filepath.Join(t.TempDir(), "again.yaml")
	require.NoError(t, os.WriteFile(path, []byte(templates), 0o644))
	assert.Contains(t, f.exec(t, "load "+path), "already loaded")
	assert.Len(t, f.mem.DeviceRefs(), 2)
}

func TestSetAndPush(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	out := f.exec(t, "set zw-12/level 40")
	assert.Contains(t, out, "Staged 40 (40%)")

	out = f.exec(t, "push zw-12")
	assert.Contains(t, out, "Pushed 1 entity")

	ref, ok := f.state.Lookup("zw-12/level")
	require.True(t, ok)
	stored, err := f.mem.Feature(ref)
	require.NoError(t, err)
	assert.Equal(t, 40.0, stored.Value())
	assert.Equal(t, "40%", stored.Status())

	assert.Contains(t, f.exec(t, "push"), "Pushed 0 entities")
}

func TestRevertDropsStagedValue(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.exec(t, "set zw-12/level 70")
	assert.Contains(t, f.exec(t, "revert zw-12/level"), "Reverted 3 change(s)")

	_, _, feature, err := f.shell.feature("zw-12/level")
	require.NoError(t, err)
	assert.False(t, feature.HasChanges())
	assert.Equal(t, 0.0, feature.Value())
}

func TestLookupAndEvent(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	out := f.exec(t, "lookup zw-12/level 0")
	assert.Contains(t, out, "images/off.png")
	assert.Contains(t, out, `label="Off"`)

	out = f.exec(t, "lookup zw-12/level 150")
	assert.Contains(t, out, "Control: none")

	out = f.exec(t, "event hall-scene/scene 2")
	assert.Contains(t, out, `label="Read"`)
	assert.Contains(t, out, "value=2")

	assert.Contains(t, f.exec(t, "event hall-scene/scene 7"), "Error:")
}

func TestEnergyCommands(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.exec(t, "set zw-12/level 12.5")
	out := f.exec(t, "energy zw-12/level record consumed 15")
	assert.Contains(t, out, "Recorded 12.5 consumed over 15m0s")

	out = f.exec(t, "energy zw-12/level summary")
	assert.Contains(t, out, "Records:  1")
	assert.Contains(t, out, "Consumed: 12.5")

	assert.Contains(t, f.exec(t, "energy zw-12/level record sideways"), "Error:")
	assert.Contains(t, f.exec(t, "energy prune 1"), "Pruned 0 record(s)")
}

func TestBadInput(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	tests := []struct {
		line string
		want string
	}{
		{"frobnicate", "Unknown command"},
		{"show nowhere", "Unknown device"},
		{"set zw-12 5", "must be <address>/<key>"},
		{"set zw-12/nope 5", "unknown feature"},
		{"set zw-12/level abc", "Invalid value"},
		{"set zw-12/level", "Usage:"},
		{"discover", "Discovery not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Contains(t, f.exec(t, tt.line), tt.want)
		})
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.shell.Exec(context.Background(), "quit"))
	assert.False(t, f.shell.Exec(context.Background(), "   "))
}
