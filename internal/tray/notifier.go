package tray

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

// PollInterval bounds each transport poll once no more icons can arrive.
const PollInterval = time.Second

type State int32

const (
	StateUnregistered State = iota
	StateRegistering
	StateRegistered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Notifier keeps one published item in step with an icon stream.
type Notifier struct {
	name      string
	transport Transport
	state     atomic.Int32
	log       *slog.Logger

	// owned by Run
	icon      iconsinfo.Icon
	published int
}

// New connects to the session bus and publishes a fresh item for name.
func New(name string) (*Notifier, error) {
	t, err := DialSession()
	if err != nil {
		return nil, pipeline.Connection("session bus", err)
	}
	n, err := NewWithTransport(name, t)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return n, nil
}

// NewWithTransport publishes the item on t.
func NewWithTransport(name string, t Transport) (*Notifier, error) {
	item := NewItem(name)
	if err := t.Publish(item); err != nil {
		return nil, pipeline.Connection("publish item", err)
	}
	return &Notifier{
		name:      name,
		transport: t,
		icon:      item.IconName,
		log:       slog.Default().With("pipeline", name, "component", "notifier"),
	}, nil
}

func (n *Notifier) Name() string { return n.name }

func (n *Notifier) State() State { return State(n.state.Load()) }

func (n *Notifier) setState(s State) {
	old := State(n.state.Swap(int32(s)))
	if old != s {
		n.log.Debug("notifier state", "from", old, "to", s)
	}
}

// Run registers the item and then publishes every icon received from icons
// until the transport fails or ctx is done. When the stream ends the last
// icon stays up and Run keeps serving the transport. Run closes icons on
// return.
func (n *Notifier) Run(ctx context.Context, icons *pipe.Receiver) error {
	defer icons.Close()

	n.setState(StateRegistering)
	if err := n.transport.Register(ctx); err != nil {
		n.setState(StateFailed)
		return pipeline.Registration("register item", err)
	}
	n.setState(StateRegistered)
	n.log.Info("registered item")

	recvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-n.transport.Done():
			cancel()
		case <-recvCtx.Done():
		}
	}()

	var wait time.Duration
	frozen := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.transport.Poll(wait); err != nil {
			n.setState(StateFailed)
			return pipeline.Connection("session bus", err)
		}
		if frozen {
			continue
		}

		icon, err := icons.Recv(recvCtx)
		switch {
		case err == nil:
			n.publish(icon)
		case errors.Is(err, pipe.ErrSenderGone):
			n.log.Warn("icon stream ended, keeping last icon", "icon", n.icon, "error", err)
			frozen = true
			wait = PollInterval
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			n.setState(StateFailed)
			return pipeline.Connection("session bus", errDisconnected)
		}
	}
}

func (n *Notifier) publish(icon iconsinfo.Icon) {
	n.icon = icon
	if err := n.transport.SetIcon(icon); err != nil {
		n.log.Error("could not update icon", "icon", icon, "error", err)
		return
	}
	if err := n.transport.NewIcon(); err != nil {
		n.log.Error("could not emit NewIcon", "icon", icon, "error", err)
		return
	}
	n.published++
	n.log.Info("published icon", "icon", icon)
}
