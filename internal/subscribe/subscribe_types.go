package subscribe

import (
	"github.com/godbus/dbus/v5"
)

// SignalBus is the part of a bus connection used to subscribe to signals.
type SignalBus interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
}

// Event is one subscribed signal. Consumers re-read the full state on every
// event, so only the member name is carried.
type Event struct {
	Member string
	Path   dbus.ObjectPath
}

// Topic is one signal a monitor listens for.
type Topic struct {
	Sender string
	Path   dbus.ObjectPath
	Member string
}

func (t Topic) options() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchSender(t.Sender),
		dbus.WithMatchObjectPath(t.Path),
		dbus.WithMatchMember(t.Member),
	}
}

// Rule renders the match rule string the bus daemon receives.
func (t Topic) Rule() string {
	return "type='signal',sender='" + t.Sender + "',path='" + string(t.Path) + "',member='" + t.Member + "'"
}
