package subscribe

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/utils"
)

// signalBuffer is the depth of the channel godbus delivers into. godbus drops
// signals for a full channel, so it is kept generous.
const signalBuffer = 64

// Events adds one match per topic and returns a stream of the signals whose
// sender path and member match a topic. The stream closes when the bus stops
// delivering signals.
func Events(bus SignalBus, topics ...Topic) (<-chan Event, error) {
	for _, t := range topics {
		if err := bus.AddMatchSignal(t.options()...); err != nil {
			return nil, pipeline.Subscription(t.Rule(), err)
		}
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	bus.Signal(signals)

	out := make(chan Event, signalBuffer)
	go func() {
		defer close(out)
		for sig := range signals {
			if sig == nil {
				continue
			}
			member := utils.Member(sig.Name)
			if !matches(topics, sig.Path, member) {
				slog.Debug("ignoring signal", "name", sig.Name, "path", sig.Path)
				continue
			}
			out <- Event{Member: member, Path: sig.Path}
		}
	}()

	return out, nil
}

func matches(topics []Topic, path dbus.ObjectPath, member string) bool {
	for _, t := range topics {
		if t.Path == path && t.Member == member {
			return true
		}
	}
	return false
}
