package subscribe

import (
	"github.com/hoppxi/sgstatus/pkg/batteryinfo"
)

// BatteryTopics watch property changes of UPower's display device.
var BatteryTopics = []Topic{
	{Sender: batteryinfo.Service, Path: batteryinfo.Path, Member: "PropertiesChanged"},
}

func BatteryEvents(bus SignalBus) (<-chan Event, error) {
	return Events(bus, BatteryTopics...)
}
