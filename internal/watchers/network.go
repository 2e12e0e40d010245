package watchers

import (
	"github.com/hoppxi/sgstatus/internal/subscribe"
	"github.com/hoppxi/sgstatus/pkg/netinfo"
)

// NewNetworkWatcher follows NetworkManager. A nil connector uses a private
// system bus connection.
func NewNetworkWatcher(connect BusConnector) *BusWatcher {
	if connect == nil {
		connect = connectSystemBus
	}
	return &BusWatcher{
		name:    "network",
		connect: connect,
		icon:    netinfo.Icon,
		events:  subscribe.NetworkEvents,
	}
}
