package tray

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/hoppxi/sgstatus/internal/utils"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

// Transport is the host-facing side of a notifier.
type Transport interface {
	// Publish exports the item. It must succeed before Register.
	Publish(item *Item) error
	// Register announces the published item to the watcher.
	Register(ctx context.Context) error
	SetIcon(icon iconsinfo.Icon) error
	// NewIcon tells listening hosts to re-read the icon.
	NewIcon() error
	// Poll waits up to wait for the transport to fail and returns the
	// failure, or nil once wait passed.
	Poll(wait time.Duration) error
	Done() <-chan struct{}
	Close() error
}

var errDisconnected = errors.New("session bus disconnected")

type sessionTransport struct {
	conn  *dbus.Conn
	props *prop.Properties
}

// DialSession opens a private session bus connection for one item.
func DialSession() (Transport, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &sessionTransport{conn: conn}, nil
}

func (t *sessionTransport) Publish(item *Item) error {
	if err := t.conn.Export(item, ItemPath, ItemInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", ItemInterface, err)
	}

	props, err := prop.Export(t.conn, ItemPath, item.properties())
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}
	t.props = props

	node := &introspect.Node{
		Name: string(ItemPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ItemInterface,
				Methods:    introspect.Methods(item),
				Signals:    []introspect.Signal{{Name: "NewIcon"}},
				Properties: props.Introspection(ItemInterface),
			},
		},
	}
	if err := t.conn.Export(introspect.NewIntrospectable(node), ItemPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}
	return nil
}

func (t *sessionTransport) Register(ctx context.Context) error {
	names := t.conn.Names()
	if len(names) == 0 {
		return errors.New("connection has no unique name")
	}

	ctx, cancel := context.WithTimeout(ctx, utils.CallTimeout)
	defer cancel()

	obj := t.conn.Object(WatcherService, WatcherPath)
	call := obj.CallWithContext(ctx, WatcherInterface+".RegisterStatusNotifierItem", 0, names[0])
	if call.Err != nil {
		return fmt.Errorf("failed to register with %s: %w", WatcherService, call.Err)
	}
	return nil
}

func (t *sessionTransport) SetIcon(icon iconsinfo.Icon) error {
	if t.props == nil {
		return errors.New("item not published")
	}
	t.props.SetMust(ItemInterface, "IconName", string(icon))
	return nil
}

func (t *sessionTransport) NewIcon() error {
	return t.conn.Emit(ItemPath, ItemInterface+".NewIcon")
}

func (t *sessionTransport) Poll(wait time.Duration) error {
	if !t.conn.Connected() {
		return errDisconnected
	}
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-t.conn.Context().Done():
		return errDisconnected
	case <-timer.C:
		return nil
	}
}

func (t *sessionTransport) Done() <-chan struct{} { return t.conn.Context().Done() }

func (t *sessionTransport) Close() error { return t.conn.Close() }
