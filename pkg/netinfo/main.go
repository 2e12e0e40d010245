package netinfo

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/utils"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

const (
	Service   = "org.freedesktop.NetworkManager"
	Interface = "org.freedesktop.NetworkManager"
	Path      = dbus.ObjectPath("/org/freedesktop/NetworkManager")
)

type State struct {
	Connectivity uint32 `json:"connectivity"`
	// Kind is the primary connection type, empty when unknown.
	Kind string `json:"kind"`
}

// Read re-queries NetworkManager. It returns a Query error when State cannot
// be read; an unreadable connection type is reported as an empty Kind.
func Read(ctx context.Context, props utils.PropertyReader) (State, error) {
	var st State

	v, err := props.GetProperty(ctx, Service, Path, Interface, "State")
	if err != nil {
		return st, pipeline.Query("network state", err)
	}
	n, ok := utils.VariantUint32(v)
	if !ok {
		return st, pipeline.Query("network state", utils.UnexpectedType(v))
	}
	st.Connectivity = n

	v, err = props.GetProperty(ctx, Service, Path, Interface, "PrimaryConnectionType")
	if err != nil {
		return st, nil
	}
	st.Kind, _ = utils.VariantString(v)
	return st, nil
}

// Icon reads the current state and maps it, falling back to the acquiring
// icon when NetworkManager cannot be queried.
func Icon(ctx context.Context, props utils.PropertyReader) (iconsinfo.Icon, error) {
	st, err := Read(ctx, props)
	if err != nil {
		return iconsinfo.NetworkWiredAcquiring, err
	}
	return iconsinfo.Network(st.Kind, st.Connectivity), nil
}
