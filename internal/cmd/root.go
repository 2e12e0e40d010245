package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoppxi/sgstatus/internal/manager"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "sgstatus",
	Version: Version,
	Short:   "Network, power and volume icons for the system tray",
	Long: "sgstatus watches NetworkManager, UPower and PulseAudio and shows one " +
		"StatusNotifierItem per subsystem. The log level comes from SGSTATUS_LOG.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		manager.SetupLogging(os.Stderr, manager.Config.Load())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return manager.Run(ctx)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
