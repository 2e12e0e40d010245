package iconsinfo

// Icon is a freedesktop icon name shown by the tray host.
type Icon string

// Loading is published before a monitor has reported anything.
const Loading Icon = "image-loading-symbolic"

// Connectivity values of org.freedesktop.NetworkManager.State (NMState).
const (
	NMStateUnknown         uint32 = 0
	NMStateAsleep          uint32 = 10
	NMStateDisconnected    uint32 = 20
	NMStateDisconnecting   uint32 = 30
	NMStateConnecting      uint32 = 40
	NMStateConnectedLocal  uint32 = 50
	NMStateConnectedSite   uint32 = 60
	NMStateConnectedGlobal uint32 = 70
)

// Primary connection types reported by NetworkManager.
const (
	KindWireless = "802-11-wireless"
	KindEthernet = "802-3-ethernet"
)

const (
	NetworkWirelessExcellent    Icon = "network-wireless-signal-excellent-symbolic"
	NetworkWirelessNoRoute      Icon = "network-wireless-no-route-symbolic"
	NetworkWirelessDisconnected Icon = "network-wireless-disconnected-symbolic"
	NetworkWirelessAcquiring    Icon = "network-wireless-acquiring-symbolic"
	NetworkTransmitReceive      Icon = "network-transmit-receive-symbolic"
	NetworkWiredNoRoute         Icon = "network-wired-no-route-symbolic"
	NetworkWiredDisconnected    Icon = "network-wired-disconnected-symbolic"
	NetworkWiredAcquiring       Icon = "network-wired-acquiring-symbolic"
	NetworkWiredOffline         Icon = "network-wired-offline-symbolic"
)

// Network picks the icon family from the connection kind and the icon
// within it from the connectivity state. An empty kind means the kind
// could not be read.
func Network(kind string, state uint32) Icon {
	switch kind {
	case "":
		return NetworkWiredAcquiring
	case KindWireless:
		return mapWireless(state)
	case KindEthernet:
		return mapWired(state)
	default:
		return NetworkWiredNoRoute
	}
}

func mapWireless(state uint32) Icon {
	switch state {
	case NMStateConnectedGlobal:
		return NetworkWirelessExcellent
	case NMStateConnectedSite:
		return NetworkWirelessNoRoute
	case NMStateConnecting:
		return NetworkWirelessAcquiring
	default:
		return NetworkWirelessDisconnected
	}
}

func mapWired(state uint32) Icon {
	switch state {
	case NMStateConnectedGlobal:
		return NetworkTransmitReceive
	case NMStateConnectedSite:
		return NetworkWiredNoRoute
	case NMStateConnecting:
		return NetworkWiredAcquiring
	case NMStateConnectedLocal, NMStateDisconnecting, NMStateDisconnected:
		return NetworkWiredDisconnected
	default:
		return NetworkWiredOffline
	}
}

// UPower device states (org.freedesktop.UPower.Device.State).
const (
	UPowerUnknown          uint32 = 0
	UPowerCharging         uint32 = 1
	UPowerDischarging      uint32 = 2
	UPowerEmpty            uint32 = 3
	UPowerFullyCharged     uint32 = 4
	UPowerPendingCharge    uint32 = 5
	UPowerPendingDischarge uint32 = 6
)

const (
	Battery        Icon = "battery-symbolic"
	BatteryMissing Icon = "battery-missing-symbolic"
	BatteryEmpty   Icon = "battery-empty-symbolic"

	BatteryFullCharged Icon = "battery-full-charged-symbolic"
	BatteryGood        Icon = "battery-good-symbolic"
	BatteryMedium      Icon = "battery-medium-symbolic"
	BatteryLow         Icon = "battery-low-symbolic"
	BatteryCaution     Icon = "battery-caution-symbolic"

	BatteryFullCharging    Icon = "battery-full-charging-symbolic"
	BatteryGoodCharging    Icon = "battery-good-charging-symbolic"
	BatteryMediumCharging  Icon = "battery-medium-charging-symbolic"
	BatteryLowCharging     Icon = "battery-low-charging-symbolic"
	BatteryCautionCharging Icon = "battery-caution-charging-symbolic"
)

// level buckets, highest first; each entry is the inclusive lower bound.
var batteryLevels = []struct {
	min         int64
	discharging Icon
	charging    Icon
}{
	{98, BatteryFullCharged, BatteryFullCharging},
	{40, BatteryGood, BatteryGoodCharging},
	{21, BatteryMedium, BatteryMediumCharging},
	{5, BatteryLow, BatteryLowCharging},
	{0, BatteryCaution, BatteryCautionCharging},
}

// Power maps a UPower device state and a rounded percentage to an icon.
func Power(state uint32, percentage int64) Icon {
	switch state {
	case UPowerFullyCharged:
		return BatteryFullCharged
	case UPowerEmpty:
		return BatteryEmpty
	case UPowerCharging, UPowerDischarging:
		if percentage < 0 || percentage > 100 {
			return Battery
		}
		for _, l := range batteryLevels {
			if percentage >= l.min {
				if state == UPowerCharging {
					return l.charging
				}
				return l.discharging
			}
		}
		return Battery
	default:
		return BatteryMissing
	}
}

const (
	VolumeHigh   Icon = "audio-volume-high-symbolic"
	VolumeMedium Icon = "audio-volume-medium-symbolic"
	VolumeLow    Icon = "audio-volume-low-symbolic"
	VolumeMuted  Icon = "audio-volume-muted-symbolic"
)

// Volume maps a sink's mute flag and level percentage to an icon. Mute wins
// over any level; a level that could not be determined counts as muted.
func Volume(muted bool, level int, known bool) Icon {
	if muted || !known {
		return VolumeMuted
	}
	switch {
	case level > 75:
		return VolumeHigh
	case level > 25:
		return VolumeMedium
	case level > 0:
		return VolumeLow
	default:
		return VolumeMuted
	}
}
