// Package watchers turns subsystem events into a stream of icons. Every
// watcher sends one icon as soon as it can read its subsystem, then one more
// per observed change, always derived from a fresh read.
package watchers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/subscribe"
	"github.com/hoppxi/sgstatus/internal/utils"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

// Watcher produces icons for one subsystem until its source fails or ctx is
// done. Run returns the error that ended it.
type Watcher interface {
	Name() string
	Run(ctx context.Context, out *pipe.Sender) error
}

var errStreamClosed = errors.New("signal stream closed")

func logger(name string) *slog.Logger {
	return slog.Default().With("pipeline", name, "component", "monitor")
}

func send(log *slog.Logger, out *pipe.Sender, icon iconsinfo.Icon, reason string) {
	if err := out.Send(icon); err != nil {
		log.Error("could not send icon", "icon", icon, "reason", reason, "error", pipeline.Delivery("send icon", err))
		return
	}
	log.Info("sent icon", "icon", icon, "reason", reason)
}

// BusConnector opens the bus connection a watcher reads from.
type BusConnector func() (utils.Bus, error)

func connectSystemBus() (utils.Bus, error) {
	bus, err := utils.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// BusWatcher follows a subsystem published on the system bus.
type BusWatcher struct {
	name    string
	connect BusConnector
	icon    func(context.Context, utils.PropertyReader) (iconsinfo.Icon, error)
	events  func(subscribe.SignalBus) (<-chan subscribe.Event, error)
}

func (w *BusWatcher) Name() string { return w.name }

func (w *BusWatcher) Run(ctx context.Context, out *pipe.Sender) error {
	log := logger(w.name)

	bus, err := w.connect()
	if err != nil {
		return pipeline.Connection("system bus", err)
	}
	if c, ok := bus.(io.Closer); ok {
		defer c.Close()
	}
	log.Info("starting monitor")

	w.update(ctx, log, bus, out, "initial")

	events, err := w.events(bus)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return pipeline.Connection("signal stream", errStreamClosed)
			}
			log.Debug("incoming signal", "member", ev.Member, "path", ev.Path)
			w.update(ctx, log, bus, out, ev.Member)
		}
	}
}

func (w *BusWatcher) update(ctx context.Context, log *slog.Logger, props utils.PropertyReader, out *pipe.Sender, reason string) {
	icon, err := w.icon(ctx, props)
	if err != nil {
		log.Warn("could not read status, using fallback", "icon", icon, "error", err)
	}
	send(log, out, icon, reason)
}
