package featdef

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Build returns a device factory for the template. Template errors, such
// as an unknown control type, are returned directly; validation errors of
// the staged entities surface through the factory's Err.
func (d *DeviceDef) Build(pluginID string) (*factory.DeviceFactory, error) {
	df := factory.CreateDevice(pluginID).WithName(d.Name)
	if d.Location != "" {
		df.WithLocation(d.Location)
	}
	if d.Location2 != "" {
		df.WithLocation2(d.Location2)
	}
	if d.Address != "" {
		df.WithAddress(d.Address)
	}
	if d.Type != nil {
		df.WithTypeInfo(d.Type.typeInfo(model.APITypeDevice))
	}
	if d.ProductImage != "" {
		df.WithProductImage(d.ProductImage)
	}
	flags, err := miscFlags(d.Misc)
	if err != nil {
		return nil, err
	}
	if len(flags) > 0 {
		df.WithMiscFlags(flags...)
	}
	if len(d.Extra) > 0 {
		extra, err := extraData(d.Extra)
		if err != nil {
			return nil, err
		}
		df.WithExtraData(extra)
	}

	for i := range d.Features {
		ff, err := d.Features[i].Build(pluginID)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, d.Features[i].Name, err)
		}
		df.WithFeature(ff)
	}
	return df, nil
}

// Build returns a feature factory for the template.
func (fd *FeatureDef) Build(pluginID string) (*factory.FeatureFactory, error) {
	ff := factory.CreateFeature(pluginID).WithName(fd.Name)
	if fd.Location != "" {
		ff.WithLocation(fd.Location)
	}
	if fd.Location2 != "" {
		ff.WithLocation2(fd.Location2)
	}
	if fd.Address != "" {
		ff.WithAddress(fd.Address)
	}
	if fd.Type != nil {
		ff.WithTypeInfo(fd.Type.typeInfo(model.APITypeFeature))
	}
	display, err := model.ParseFeatureDisplayType(fd.Display)
	if err != nil {
		return nil, err
	}
	if display != model.DisplayNormal {
		ff.WithDisplayType(display)
	}
	if fd.Priority != 0 {
		ff.WithPriority(fd.Priority)
	}
	if fd.Value != nil {
		ff.WithValue(*fd.Value)
	}
	flags, err := miscFlags(fd.Misc)
	if err != nil {
		return nil, err
	}
	if len(flags) > 0 {
		ff.WithMiscFlags(flags...)
	}
	if len(fd.Extra) > 0 {
		extra, err := extraData(fd.Extra)
		if err != nil {
			return nil, err
		}
		ff.WithExtraData(extra)
	}

	for i := range fd.Controls {
		if err := fd.Controls[i].addTo(ff); err != nil {
			return nil, fmt.Errorf("control %d: %w", i, err)
		}
	}
	for i := range fd.Graphics {
		g, err := fd.Graphics[i].graphic()
		if err != nil {
			return nil, fmt.Errorf("graphic %d: %w", i, err)
		}
		ff.AddGraphic(g)
	}
	return ff, nil
}

func (t *TypeDef) typeInfo(api model.APIType) model.TypeInfo {
	return model.TypeInfo{
		APIType:            api,
		Type:               t.Type,
		SubType:            t.SubType,
		SubTypeDescription: t.Description,
	}
}

func miscFlags(names []string) ([]model.MiscFlag, error) {
	flags := make([]model.MiscFlag, 0, len(names))
	for _, name := range names {
		flag, err := model.ParseMiscFlag(name)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

func extraData(named map[string]string) (*model.PlugExtraData, error) {
	extra := model.NewPlugExtraData()
	for _, key := range slices.Sorted(maps.Keys(named)) {
		if err := extra.AddNamed(key, named[key]); err != nil {
			return nil, err
		}
	}
	return extra, nil
}

// ValueRange builds the range.
func (rd *RangeDef) ValueRange() (*status.ValueRange, error) {
	r, err := status.NewValueRange(rd.Min, rd.Max)
	if err != nil {
		return nil, err
	}
	r.SetOffset(rd.Offset)
	if rd.Divisor != nil {
		if err := r.SetDivisor(*rd.Divisor); err != nil {
			return nil, err
		}
	}
	if rd.Decimals != nil {
		if err := r.SetDecimalPlaces(*rd.Decimals); err != nil {
			return nil, err
		}
	}
	r.SetPrefix(rd.Prefix)
	r.SetSuffix(rd.Suffix)
	return r, nil
}

func (cd *ControlDef) addTo(ff *factory.FeatureFactory) error {
	ctype, err := status.ParseControlType(cd.Type)
	if err != nil {
		return err
	}
	use, err := status.ParseControlUse(cd.Use)
	if err != nil {
		return err
	}

	set := 0
	for _, present := range []bool{cd.Value != nil, cd.Range != nil, len(cd.Options) > 0} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %s control needs exactly one of value, range and options",
			hserr.ErrInvalidArgument, ctype)
	}

	if len(cd.Options) > 0 {
		switch ctype {
		case status.ControlTypeSelectList:
			ff.AddTextDropDown(cd.Options)
		case status.ControlTypeRadioList:
			ff.AddRadioSelectList(cd.Options)
		default:
			return fmt.Errorf("%w: options are not supported by %s controls", hserr.ErrInvalidArgument, ctype)
		}
		return nil
	}

	var c *status.StatusControl
	if cd.Range != nil {
		r, err := cd.Range.ValueRange()
		if err != nil {
			return err
		}
		if c, err = status.NewRangeControl(ctype, r, cd.Label); err != nil {
			return err
		}
	} else if c, err = status.NewPointControl(ctype, *cd.Value, cd.Label); err != nil {
		return err
	}

	if err := c.SetControlUse(use); err != nil {
		return err
	}
	if cd.Location != nil {
		loc := status.ControlLocation{Row: cd.Location.Row, Column: cd.Location.Column, Width: cd.Location.Width}
		if err := c.SetLocation(loc); err != nil {
			return err
		}
	}
	if err := c.SetStates(cd.States); err != nil {
		return err
	}
	c.SetDefault(cd.Default)
	ff.AddControl(c)
	return nil
}

func (gd *GraphicDef) graphic() (*status.StatusGraphic, error) {
	var (
		g   *status.StatusGraphic
		err error
	)
	switch {
	case gd.Value != nil && gd.Range != nil:
		return nil, fmt.Errorf("%w: graphic has both value and range", hserr.ErrInvalidArgument)
	case gd.Value != nil:
		g, err = status.NewPointGraphic(gd.Image, *gd.Value)
	case gd.Range != nil:
		r, rerr := gd.Range.ValueRange()
		if rerr != nil {
			return nil, rerr
		}
		g, err = status.NewRangeGraphic(gd.Image, r)
	default:
		return nil, fmt.Errorf("%w: graphic needs a value or a range", hserr.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	g.SetLabel(gd.Label)
	return g, nil
}
