// Package tray publishes icons as StatusNotifierItems on the session bus.
package tray

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/google/uuid"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

const (
	ItemInterface    = "org.kde.StatusNotifierItem"
	ItemPath         = dbus.ObjectPath("/StatusNotifierItem")
	WatcherInterface = "org.kde.StatusNotifierWatcher"
	WatcherService   = "org.kde.StatusNotifierWatcher"
	WatcherPath      = dbus.ObjectPath("/StatusNotifierWatcher")

	// NoMenu tells hosts the item has no dbusmenu.
	NoMenu = dbus.ObjectPath("/NO_DBUSMENU")

	CategoryHardware = "Hardware"
	StatusActive     = "Active"
)

// Item is the object exported at ItemPath. Only IconName changes after
// construction.
type Item struct {
	ID       string
	Title    string
	Category string
	Status   string
	IconName iconsinfo.Icon
}

// NewItem returns an item showing the loading icon. The id carries a random
// suffix so several daemons can share a session.
func NewItem(name string) *Item {
	return &Item{
		ID:       "sgstatus-" + name + "-" + uuid.NewString()[:8],
		Title:    "sgstatus " + name,
		Category: CategoryHardware,
		Status:   StatusActive,
		IconName: iconsinfo.Loading,
	}
}

// Hosts may call these; the item has nothing to do on input.

func (i *Item) Activate(x, y int32) *dbus.Error          { return nil }
func (i *Item) SecondaryActivate(x, y int32) *dbus.Error { return nil }
func (i *Item) ContextMenu(x, y int32) *dbus.Error       { return nil }
func (i *Item) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

func constProp(v any) *prop.Prop {
	return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitConst}
}

func (i *Item) properties() prop.Map {
	return prop.Map{
		ItemInterface: {
			"IconName":          {Value: string(i.IconName), Writable: false, Emit: prop.EmitTrue},
			"Id":                constProp(i.ID),
			"Category":          constProp(i.Category),
			"Title":             constProp(i.Title),
			"Status":            constProp(i.Status),
			"Menu":              constProp(NoMenu),
			"ItemIsMenu":        constProp(false),
			"IconThemePath":     constProp(""),
			"AttentionIconName": constProp(""),
		},
	}
}
