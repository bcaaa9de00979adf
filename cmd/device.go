package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/video-stream/transcriber/internal/device"
	"github.com/video-stream/transcriber/internal/recognizer"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Show the selected compute device and engine precision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := device.NewSelector(cfg.Device, device.HostProbe()).Detect()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Device: %s", info.Kind)
		if info.Forced {
			fmt.Fprint(out, " (set by config)")
		}
		fmt.Fprintln(out)
		if info.GPU.Device != "" {
			fmt.Fprintf(out, "GPU:    %s", info.GPU.Device)
			if info.GPU.VRAMTotal > 0 {
				fmt.Fprintf(out, ", %d MiB VRAM", info.GPU.VRAMTotal/(1<<20))
			}
			fmt.Fprintln(out)
		}
		for _, kind := range []recognizer.Kind{recognizer.Standard, recognizer.Fast} {
			dev, prec := recognizer.PolicyFor(kind, info.Kind)
			fmt.Fprintf(out, "%-8s -> %s/%s\n", kind, dev, prec)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}
