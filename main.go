// devwipe irreversibly sanitizes a raw block device.
//
// Every run overwrites the whole device N times: passes 1..N-1 with
// cryptographically random data and pass N with zeros, each pass ending
// in a flush of the device.
//
//	sudo devwipe wipe /dev/sdX 8 --force
//	sudo devwipe wipe /dev/sdX 3 --mode direct --buf 1MB --force
//	devwipe device list --all
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/google/uuid"
	"github.com/nnsgmsone/damrey/logger"
	"github.com/spf13/cobra"

	"devwipe/rawdev"
	"devwipe/wipe"
)

// environment carries the collaborators shared by all commands.
type environment struct {
	backend *rawdev.Backend
	clock   clock.Clock
	newID   func() (uuid.UUID, error)
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "devwipe",
		Short:         "Raw block device wiper",
		Long:          "Overwrite a whole block device with random passes followed by a final zero pass",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)
	root.AddCommand(newWipeCommand(env))
	root.AddCommand(newDeviceCommand(env))
	return root
}

// reportFailure is the single sink for fatal errors.
func reportFailure(w io.Writer, log logger.Log, err error) int {
	if errors.Is(err, errAborted) {
		fmt.Fprintf(w, "\n%v\n", err)
		return 130
	}
	var werr *wipe.Error
	if wipe.IsBusy(err) && errors.As(err, &werr) &&
		(errors.Is(err, wipe.ErrDeviceQuery) || errors.Is(err, wipe.ErrDeviceOpen)) {
		busyHelp(w, werr.Path)
	}
	log.Errorf("%v\n", err)
	return 1
}

func busyHelp(w io.Writer, device string) {
	fmt.Fprintf(w, "Device %s is busy (it may be mounted).\n", device)
	fmt.Fprintf(w, "macOS:  diskutil unmountDisk %s\n", device)
	fmt.Fprintln(w, "Linux:  sudo umount <mount point or /dev/...>")
	fmt.Fprintf(w, "        lsblk -f | grep $(basename %s)\n", device)
	fmt.Fprintf(w, "        sudo lsof %s | head\n", device)
	fmt.Fprintf(w, "        sudo fuser -mv %s\n", device)
	fmt.Fprintln(w, "        sudo swapoff -a")
	fmt.Fprintln(w, "        sudo dmsetup ls")
}

func main() {
	env := &environment{
		backend: rawdev.New(),
		clock:   clock.SystemClock,
		newID:   uuid.NewRandom,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	if err := newRootCommand(env).Execute(); err != nil {
		os.Exit(reportFailure(os.Stderr, logger.New(os.Stderr, "devwipe"), err))
	}
}
