package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

func sampleControls(t *testing.T) *status.Controls {
	t.Helper()
	controls := status.NewControls()

	off, err := status.NewPointControl(status.ControlTypeButton, 0, "Off")
	require.NoError(t, err)
	require.NoError(t, off.SetControlUse(status.ControlUseOff))
	require.NoError(t, off.SetLocation(status.ControlLocation{Row: 1, Column: 2, Width: 1}))

	r := status.MustValueRange(1, 3)
	r.SetSuffix(" step")
	sel, err := status.NewRangeControl(status.ControlTypeSelectList, r, "Speed")
	require.NoError(t, err)
	require.NoError(t, sel.SetStates([]string{"Low", "Mid", "High"}))
	sel.SetDefault(true)

	require.NoError(t, controls.Add(off))
	require.NoError(t, controls.Add(sel))
	return controls
}

func TestChangesRoundTrip(t *testing.T) {
	extra := model.NewPlugExtraData()
	require.NoError(t, extra.AddNamed("serial", "SN-9"))
	extra.AddUnnamed("raw")

	graphics := status.NewGraphics()
	g, err := status.NewRangeGraphic("images/fan.png", status.MustValueRange(1, 3))
	require.NoError(t, err)
	g.SetLabel("Running")
	require.NoError(t, graphics.Add(g))

	in := model.Changes{
		model.PropertyRef:                5,
		model.PropertyInterface:          "demo",
		model.PropertyRelationship:       model.RelationshipFeature,
		model.PropertyAssociatedDevices:  []int{2},
		model.PropertyName:               "Fan",
		model.PropertyValue:              2.5,
		model.PropertyMisc:               model.MiscShowValues | model.MiscNoLog,
		model.PropertyDeviceType:         model.TypeInfo{APIType: model.APITypeFeature, Type: 3, SubTypeDescription: "fan"},
		model.PropertyPlugExtraData:      extra,
		model.PropertyInvalidValue:       true,
		model.PropertyFeatureDisplayType: model.DisplayHighlight,
		model.PropertyFeaturePriority:    4,
		model.PropertyStatusControls:     sampleControls(t),
		model.PropertyStatusGraphics:     graphics,
		model.PropertyLastChange:         time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
	}

	raw, err := EncodeChanges(in)
	require.NoError(t, err)
	assert.Len(t, raw, len(in))

	data, err := Marshal(raw)
	require.NoError(t, err)
	var back RawChanges
	require.NoError(t, Unmarshal(data, &back))

	out, err := DecodeChanges(back)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.True(t, in.Equal(out), "decoded changes differ: %v", out)

	controls := out[model.PropertyStatusControls].(*status.Controls)
	sel, err := controls.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, "Mid", sel.LabelForValue(2))
	assert.True(t, sel.IsDefault())
	assert.Equal(t, " step", sel.TargetRange().Suffix())
}

func TestEncodeChangesRejectsWrongType(t *testing.T) {
	_, err := EncodeChanges(model.Changes{model.PropertyName: 3})
	assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
}

func TestDecodeChangesErrors(t *testing.T) {
	text, err := Marshal("x")
	require.NoError(t, err)

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := DecodeChanges(RawChanges{200: text})
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})

	t.Run("WrongShape", func(t *testing.T) {
		_, err := DecodeChanges(RawChanges{uint8(model.PropertyValue): text})
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})

	t.Run("OverlappingControls", func(t *testing.T) {
		one := 1.0
		data, err := Marshal([]ControlRecord{
			{Value: &one, Label: "a", Width: 1},
			{Value: &one, Label: "b", Width: 1},
		})
		require.NoError(t, err)
		_, err = DecodeChanges(RawChanges{uint8(model.PropertyStatusControls): data})
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})

	t.Run("EntryWithoutTarget", func(t *testing.T) {
		data, err := Marshal([]GraphicRecord{{ImagePath: "x.png"}})
		require.NoError(t, err)
		_, err = DecodeChanges(RawChanges{uint8(model.PropertyStatusGraphics): data})
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})
}

func TestCrossedRangeBoundsRoundTrip(t *testing.T) {
	aboveZero := status.MustValueRange(0, 0)
	require.NoError(t, aboveZero.SetMin(5))
	belowZero := status.MustValueRange(0, 0)
	require.NoError(t, belowZero.SetMax(-5))

	for name, r := range map[string]*status.ValueRange{
		"MinAboveZeroMax": aboveZero,
		"MaxBelowZeroMin": belowZero,
	} {
		t.Run(name, func(t *testing.T) {
			c, err := status.NewRangeControl(status.ControlTypeSlider, r, "Level")
			require.NoError(t, err)
			controls := status.NewControls()
			require.NoError(t, controls.Add(c))
			in := model.Changes{model.PropertyStatusControls: controls}

			raw, err := EncodeChanges(in)
			require.NoError(t, err)
			out, err := DecodeChanges(raw)
			require.NoError(t, err)
			assert.True(t, in.Equal(out), "decoded changes differ: %v", out)

			back := out[model.PropertyStatusControls].(*status.Controls).Values()
			require.Len(t, back, 1)
			assert.True(t, r.Equal(back[0].TargetRange()))
		})
	}

	t.Run("CrossedNonZeroBounds", func(t *testing.T) {
		_, err := (&RangeRecord{Min: 5, Max: 3, Divisor: 1}).ValueRange()
		assert.ErrorIs(t, err, hserr.ErrOutOfRange)
	})
}

func TestNilExtraDataRoundTrip(t *testing.T) {
	var none *model.PlugExtraData
	raw, err := EncodeChanges(model.Changes{model.PropertyPlugExtraData: none})
	require.NoError(t, err)

	out, err := DecodeChanges(raw)
	require.NoError(t, err)
	assert.Nil(t, out[model.PropertyPlugExtraData])
}
