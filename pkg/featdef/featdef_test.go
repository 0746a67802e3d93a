package featdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

const dimmerYAML = `
name: Kitchen dimmer
location: Kitchen
location2: Ground floor
address: zw-12
type: {type: 3, subtype: 1, description: dimmer}
misc: [show-values, include-in-power-fail]
extra:
  node: "12"
  serial: SN-4
features:
  - name: Level
    display: highlight
    priority: 1
    value: 0
    controls:
      - {type: button, value: 0, label: "Off", use: "off", location: {row: 1, column: 1, width: 1}}
      - type: slider
        range: {min: 1, max: 99, suffix: "%"}
        use: dim
        location: {row: 1, column: 2, width: 2}
      - {type: button, value: 100, label: "On", use: "on", default: true}
    graphics:
      - {image: images/off.png, value: 0, label: Dark}
      - {image: images/on.png, range: {min: 1, max: 100}}
  - name: Scene
    controls:
      - type: radio
        options: {Relax: 1, Read: 2, Party: 3}
`

func TestParseAndBuildDimmer(t *testing.T) {
	defs, err := Parse([]byte(dimmerYAML))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	df, err := defs[0].Build("demo")
	require.NoError(t, err)
	require.NoError(t, df.Err())

	d := df.Device()
	assert.Equal(t, "Kitchen dimmer", d.Name())
	assert.Equal(t, "Ground floor", d.Location2())
	assert.Equal(t, model.TypeInfo{APIType: model.APITypeDevice, Type: 3, SubType: 1, SubTypeDescription: "dimmer"}, d.TypeInfo())
	assert.True(t, d.ContainsMiscFlag(model.MiscShowValues|model.MiscIncludeInPowerFail))
	serial, ok := d.PlugExtraData().GetNamed("serial")
	assert.True(t, ok)
	assert.Equal(t, "SN-4", serial)

	features := df.Features()
	require.Len(t, features, 2)

	level := features[0].Feature()
	assert.Equal(t, model.DisplayHighlight, level.DisplayType())
	assert.Equal(t, 1, level.Priority())
	assert.Equal(t, 3, level.StatusControls().Count())

	slider, err := level.StatusControlForValue(50)
	require.NoError(t, err)
	assert.Equal(t, status.ControlTypeSlider, slider.ControlType())
	assert.Equal(t, status.ControlUseDim, slider.ControlUse())
	assert.Equal(t, status.ControlLocation{Row: 1, Column: 2, Width: 2}, slider.Location())
	assert.Equal(t, "50%", slider.LabelForValue(50))

	on, err := level.StatusControlForValue(100)
	require.NoError(t, err)
	assert.True(t, on.IsDefault())

	assert.Equal(t, "Dark", level.DisplayedStatus(0))

	scene := features[1].Feature()
	values := scene.StatusControls().Values()
	require.Len(t, values, 3)
	assert.Equal(t, "Relax", values[0].Label())
	assert.Equal(t, status.ControlTypeRadioList, values[2].ControlType())

	data, err := df.PrepareForHs()
	require.NoError(t, err)
	assert.Len(t, data.Features, 2)
	assert.Equal(t, "Kitchen dimmer", data.Changes[model.PropertyName])
}

func TestParseMultipleDocuments(t *testing.T) {
	defs, err := Parse([]byte("name: A\n---\nname: B\nfeatures: [{name: F}]\n"))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "B", defs[1].Name)
	assert.Len(t, defs[1].Features, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no name", "location: Hall\n"},
		{"unknown key", "name: A\ncolour: red\n"},
		{"malformed", "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	one := 1.0
	rng := &RangeDef{Min: 0, Max: 10}
	tests := []struct {
		name    string
		feature FeatureDef
		want    error
	}{
		{
			name:    "unknown control type",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "knob", Value: &one}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "unknown control use",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "button", Value: &one, Use: "launch"}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "value and range",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "slider", Value: &one, Range: rng}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "no target",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "button"}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "options on slider",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "slider", Options: map[string]float64{"a": 1}}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "inverted range",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "slider", Range: &RangeDef{Min: 5, Max: 1}}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "states on point",
			feature: FeatureDef{Name: "F", Controls: []ControlDef{{Type: "button", Value: &one, States: []string{"x"}}}},
			want:    hserr.ErrInvalidOperation,
		},
		{
			name:    "bad display",
			feature: FeatureDef{Name: "F", Display: "blink"},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "bad misc",
			feature: FeatureDef{Name: "F", Misc: []string{"sparkle"}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "graphic without target",
			feature: FeatureDef{Name: "F", Graphics: []GraphicDef{{Image: "x.png"}}},
			want:    hserr.ErrInvalidArgument,
		},
		{
			name:    "zero divisor",
			feature: FeatureDef{Name: "F", Graphics: []GraphicDef{{Image: "x.png", Range: &RangeDef{Max: 1, Divisor: new(float64)}}}},
			want:    hserr.ErrOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &DeviceDef{Name: "D", Features: []FeatureDef{tt.feature}}
			_, err := def.Build("demo")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildOverlapSurfacesThroughFactory(t *testing.T) {
	one := 1.0
	def := &DeviceDef{Name: "D", Features: []FeatureDef{{
		Name: "F",
		Controls: []ControlDef{
			{Type: "slider", Range: &RangeDef{Min: 0, Max: 10}},
			{Type: "button", Value: &one},
		},
	}}}
	df, err := def.Build("demo")
	require.NoError(t, err)
	assert.ErrorIs(t, df.Err(), hserr.ErrOverlap)

	_, err = df.PrepareForHs()
	assert.ErrorIs(t, err, hserr.ErrOverlap)
}

func TestLoadAndMarshal(t *testing.T) {
	defs, err := Parse([]byte(dimmerYAML))
	require.NoError(t, err)

	data, err := Marshal(defs[0])
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dimmer.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, defs[0], loaded[0])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
