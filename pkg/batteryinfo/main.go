package batteryinfo

import (
	"context"
	"math"

	"github.com/godbus/dbus/v5"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/utils"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

const (
	Service   = "org.freedesktop.UPower"
	Interface = "org.freedesktop.UPower.Device"
	// DisplayDevice aggregates every battery into one composite device.
	Path = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
)

type State struct {
	DeviceState uint32  `json:"state"`
	Percentage  float64 `json:"percentage"`
}

// Level is the percentage rounded to the nearest integer.
func (s State) Level() int64 {
	return int64(math.Round(s.Percentage))
}

func Read(ctx context.Context, props utils.PropertyReader) (State, error) {
	var st State

	v, err := props.GetProperty(ctx, Service, Path, Interface, "State")
	if err != nil {
		return st, pipeline.Query("battery state", err)
	}
	n, ok := utils.VariantUint32(v)
	if !ok {
		return st, pipeline.Query("battery state", utils.UnexpectedType(v))
	}
	st.DeviceState = n

	v, err = props.GetProperty(ctx, Service, Path, Interface, "Percentage")
	if err != nil {
		return st, pipeline.Query("battery percentage", err)
	}
	f, ok := utils.VariantFloat(v)
	if !ok {
		return st, pipeline.Query("battery percentage", utils.UnexpectedType(v))
	}
	st.Percentage = f
	return st, nil
}

// Icon reads the display device and maps it. When UPower cannot be queried
// the generic battery icon is returned with the error.
func Icon(ctx context.Context, props utils.PropertyReader) (iconsinfo.Icon, error) {
	st, err := Read(ctx, props)
	if err != nil {
		return iconsinfo.Battery, err
	}
	return iconsinfo.Power(st.DeviceState, st.Level()), nil
}
