package utils

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

// CallTimeout bounds every round trip to another bus peer.
const CallTimeout = 5000 * time.Millisecond

const propertiesGet = "org.freedesktop.DBus.Properties.Get"

// PropertyReader reads one property of a remote object.
type PropertyReader interface {
	GetProperty(ctx context.Context, dest string, path dbus.ObjectPath, iface, name string) (dbus.Variant, error)
}

// Bus is the part of a bus connection the monitors use.
type Bus interface {
	PropertyReader
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
}

// SystemBus is a private system bus connection.
type SystemBus struct {
	conn *dbus.Conn
}

// ConnectSystemBus opens a connection not shared with anything else in the
// process, so one monitor's subscriptions never leak into another's stream.
func ConnectSystemBus() (*SystemBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &SystemBus{conn: conn}, nil
}

func (b *SystemBus) GetProperty(ctx context.Context, dest string, path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	var v dbus.Variant
	err := b.conn.Object(dest, path).CallWithContext(ctx, propertiesGet, 0, iface, name).Store(&v)
	if err != nil {
		return dbus.Variant{}, fmt.Errorf("get %s.%s: %w", iface, name, err)
	}
	return v, nil
}

func (b *SystemBus) AddMatchSignal(options ...dbus.MatchOption) error {
	return b.conn.AddMatchSignal(options...)
}

func (b *SystemBus) Signal(ch chan<- *dbus.Signal) {
	b.conn.Signal(ch)
}

func (b *SystemBus) Close() error {
	return b.conn.Close()
}

// Member strips the interface from a signal name.
func Member(signalName string) string {
	if i := strings.LastIndexByte(signalName, '.'); i >= 0 {
		return signalName[i+1:]
	}
	return signalName
}

// VariantUint32 reads any integral variant as uint32.
func VariantUint32(v dbus.Variant) (uint32, bool) {
	switch n := v.Value().(type) {
	case uint32:
		return n, true
	case int32:
		if n >= 0 {
			return uint32(n), true
		}
	case uint8:
		return uint32(n), true
	case uint16:
		return uint32(n), true
	case int16:
		if n >= 0 {
			return uint32(n), true
		}
	case uint64:
		if n <= math.MaxUint32 {
			return uint32(n), true
		}
	case int64:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	}
	return 0, false
}

// VariantFloat reads a numeric variant as float64.
func VariantFloat(v dbus.Variant) (float64, bool) {
	switch n := v.Value().(type) {
	case float64:
		return n, true
	case uint32:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// VariantString reads a string variant.
func VariantString(v dbus.Variant) (string, bool) {
	s, ok := v.Value().(string)
	return s, ok
}

// UnexpectedType describes a variant that did not hold the expected type.
func UnexpectedType(v dbus.Variant) error {
	return fmt.Errorf("unexpected variant type %q", v.Signature().String())
}
