package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"

	"devwipe/rawdev"
	"devwipe/wipe"
)

func humanSize(n uint64) string {
	if n == 0 {
		return "-"
	}
	return datasize.ByteSize(n).HumanReadable()
}

func newDeviceCommand(env *environment) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Device related utilities (safe, read-only)",
	}

	var listAll bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List whole-disk devices that can be wiped (read-only)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			disks, err := env.backend.Discover()
			if err != nil {
				return err
			}
			out := env.stdout
			fmt.Fprintf(out, "OS: %s\n", runtime.GOOS)
			fmt.Fprintln(out, "This is a SAFE, read-only listing. Nothing will be written.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Whole disks (valid wipe targets):")
			fmt.Fprintf(out, "  %-18s  %-14s  %-20s  %-10s\n", "Path", "Type", "Serial", "Size")
			printed := false
			for _, d := range disks {
				if !d.Whole {
					continue
				}
				serial := d.Serial
				if serial == "" {
					serial = "-"
				}
				fmt.Fprintf(out, "  %-18s  %-14s  %-20s  %-10s\n", d.Path, d.Kind, serial, humanSize(d.Size))
				printed = true
			}
			if !printed {
				fmt.Fprintln(out, "  <none detected>")
			}
			fmt.Fprintln(out)
			if listAll {
				fmt.Fprintln(out, "Partitions and other devices (not wiped as a whole):")
				for _, d := range disks {
					if !d.Whole {
						fmt.Fprintf(out, "  %s  (%s)\n", d.Path, d.Reason)
					}
				}
				fmt.Fprintln(out)
			}
			if mounts, err := env.backend.Mounts(); err == nil {
				var devMounts []string
				for _, m := range mounts {
					if strings.HasPrefix(m.Device, "/dev/") {
						devMounts = append(devMounts, fmt.Sprintf("  %-24s  %-10s  %-18s  %-10s", m.MountPoint, m.FSType, m.Device, humanSize(m.Size)))
					}
				}
				if len(devMounts) > 0 {
					fmt.Fprintln(out, "Mounted volumes (unmount before wiping):")
					fmt.Fprintf(out, "  %-24s  %-10s  %-18s  %-10s\n", "Mount", "FS", "Device", "Size")
					for _, line := range devMounts {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out)
				}
			}
			fmt.Fprintln(out, "Notes:")
			switch runtime.GOOS {
			case "darwin":
				fmt.Fprintln(out, "  - Whole disks are /dev/diskN or the faster raw /dev/rdiskN. Partitions like /dev/diskNsM are not listed as targets.")
			case "linux":
				fmt.Fprintln(out, "  - Whole disks: /dev/sdX, /dev/vdX, /dev/nvmeXnY, /dev/mmcblkX. Partitions are not listed as targets.")
			default:
				fmt.Fprintf(out, "  - Wiping is not supported on %s.\n", runtime.GOOS)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&listAll, "all", false, "include partitions and loop devices in the output")
	deviceCmd.AddCommand(listCmd)

	infoCmd := &cobra.Command{
		Use:   "info <mount point or device>",
		Short: "Show size, block geometry and buffer choice of a device (read-only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dev, mnt, err := env.backend.Resolve(args[0])
			if err != nil {
				return err
			}
			out := env.stdout
			fmt.Fprintln(out, "Path info")
			fmt.Fprintf(out, "  Input:    %s\n", args[0])
			fmt.Fprintf(out, "  Device:   %s\n", dev)
			if mnt != "" {
				fmt.Fprintf(out, "  Mounted:  %s\n", mnt)
			}
			fmt.Fprintf(out, "  Whole:    %s\n", rawdev.WholeDisk(dev))

			if size, err := env.backend.DeviceSize(dev); err == nil {
				fmt.Fprintf(out, "  Size:     %d bytes (%s)\n", size, humanSize(size))
			} else {
				fmt.Fprintf(out, "  Size:     unknown (%v)\n", err)
			}
			g, err := env.backend.BlockGeometry(dev)
			if err != nil {
				g = wipe.DefaultGeometry
				fmt.Fprintf(out, "  Blocks:   unknown (%v), assuming logical = %dB, physical = %dB\n", err, g.Logical, g.Physical)
			} else {
				fmt.Fprintf(out, "  Blocks:   logical = %dB, physical = %dB\n", g.Logical, g.Physical)
			}
			fmt.Fprintf(out, "  Buffer:   %dB\n", wipe.ChooseBufferSize(g, 0))
			var modes []string
			for _, m := range []wipe.SyncMode{wipe.Fast, wipe.Durable, wipe.Direct} {
				if env.backend.Supports(m) {
					modes = append(modes, m.String())
				}
			}
			fmt.Fprintf(out, "  Modes:    %s\n", strings.Join(modes, ", "))
			return nil
		},
	}
	deviceCmd.AddCommand(infoCmd)
	return deviceCmd
}
