package watchers

import (
	"github.com/hoppxi/sgstatus/internal/subscribe"
	"github.com/hoppxi/sgstatus/pkg/batteryinfo"
)

// NewBatteryWatcher follows UPower's display device.
func NewBatteryWatcher(connect BusConnector) *BusWatcher {
	if connect == nil {
		connect = connectSystemBus
	}
	return &BusWatcher{
		name:    "power",
		connect: connect,
		icon:    batteryinfo.Icon,
		events:  subscribe.BatteryEvents,
	}
}
