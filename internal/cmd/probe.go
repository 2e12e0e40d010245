package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/hoppxi/sgstatus/internal/utils"
	"github.com/hoppxi/sgstatus/pkg/audioinfo"
	"github.com/hoppxi/sgstatus/pkg/batteryinfo"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
	"github.com/hoppxi/sgstatus/pkg/netinfo"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the current icon of every subsystem and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var props utils.PropertyReader
		bus, err := utils.ConnectSystemBus()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error connecting to system bus: %v\n", err)
		} else {
			defer bus.Close()
			props = bus
		}
		return probe(cmd.Context(), cmd.OutOrStdout(), props, audioinfo.Probe)
	},
}

// probe writes one "name<TAB>icon" line per subsystem. A subsystem that
// cannot be read shows its fallback icon and the error after it.
func probe(ctx context.Context, w io.Writer, props utils.PropertyReader, volume func() (audioinfo.SinkState, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	line := func(name string, icon iconsinfo.Icon, err error) {
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t(%v)\n", name, icon, err)
			return
		}
		fmt.Fprintf(w, "%s\t%s\n", name, icon)
	}

	if props == nil {
		line("network", iconsinfo.NetworkWiredAcquiring, fmt.Errorf("no system bus"))
		line("power", iconsinfo.Battery, fmt.Errorf("no system bus"))
	} else {
		icon, err := netinfo.Icon(ctx, props)
		line("network", icon, err)
		icon, err = batteryinfo.Icon(ctx, props)
		line("power", icon, err)
	}

	st, err := volume()
	if err != nil {
		line("volume", iconsinfo.VolumeMuted, err)
	} else {
		line("volume", st.Icon(), nil)
	}
	return nil
}
