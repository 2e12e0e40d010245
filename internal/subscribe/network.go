package subscribe

import (
	"github.com/hoppxi/sgstatus/pkg/netinfo"
)

// NetworkTopics are NetworkManager's primary state change and its
// generic property change on the manager object.
var NetworkTopics = []Topic{
	{Sender: netinfo.Service, Path: netinfo.Path, Member: "StateChanged"},
	{Sender: netinfo.Service, Path: netinfo.Path, Member: "PropertiesChanged"},
}

func NetworkEvents(bus SignalBus) (<-chan Event, error) {
	return Events(bus, NetworkTopics...)
}
