package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"devwipe/metrics"
	"devwipe/rawdev"
	"devwipe/tui"
	"devwipe/wipe"
)

const defaultPasses = 8

type wipeOptions struct {
	device      string
	passes      int
	mode        wipe.SyncMode
	buf         byteSizeValue
	quiet       bool
	ui          bool
	force       bool
	grace       time.Duration
	metricsFile string
}

func newWipeCommand(env *environment) *cobra.Command {
	opts := wipeOptions{passes: defaultPasses, mode: wipe.Fast}
	cmd := &cobra.Command{
		Use:   "wipe <device> [passes]",
		Short: "Overwrite a whole device, the last pass with zeros",
		Example: "  sudo devwipe wipe /dev/sdX 8 --force\n" +
			"  sudo devwipe wipe /dev/sdX 8 --mode durable --buf 65536 --force\n" +
			"  sudo devwipe wipe /dev/sdX 8 --mode direct --force\n" +
			"  sudo devwipe wipe /dev/diskN 3 --mode fast --force",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.device = args[0]
			if len(args) == 2 {
				n, err := parsePasses(args[1])
				if err != nil {
					return err
				}
				opts.passes = n
			}
			if cmd.Flags().Changed("buf") && opts.buf == 0 {
				return configError("--buf must be > 0")
			}
			if !env.backend.Supports(opts.mode) {
				return configError("mode %s is not supported on %s", opts.mode, runtime.GOOS)
			}
			if !opts.force {
				return configError("wiping destroys all data on %s, rerun with --force", opts.device)
			}
			return runWipe(cmd.Context(), env, &opts)
		},
	}
	f := cmd.Flags()
	f.Var(&opts.mode, "mode", "sync policy: fast, durable or direct (linux only)")
	f.Var(&opts.buf, "buf", "write buffer size, e.g. 65536, 64KB or 1MB (default: chosen from the block size)")
	f.BoolVar(&opts.quiet, "quiet", false, "do not print the progress line")
	f.BoolVar(&opts.ui, "ui", false, "show a fullscreen dashboard")
	f.BoolVar(&opts.force, "force", false, "confirm that all data on the device may be destroyed")
	f.DurationVar(&opts.grace, "grace", 5*time.Second, "delay before the first write during which the run can be aborted")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after every pass")
	return cmd
}

func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	}
	return runtime.GOOS
}

func runWipe(ctx context.Context, env *environment, opts *wipeOptions) error {
	out := env.stdout
	b := env.backend
	fmt.Fprintf(out, "Platform: %s\n", platformName())

	size, err := b.DeviceSize(opts.device)
	if err != nil {
		return &wipe.Error{Kind: wipe.ErrDeviceQuery, Op: "determine size of", Path: opts.device, Err: err}
	}
	geometry, err := b.BlockGeometry(opts.device)
	if err != nil {
		geometry = wipe.DefaultGeometry
		fmt.Fprintf(env.stderr, "WARNING: cannot read block sizes of %s (%v), assuming logical = %dB, physical = %dB\n",
			opts.device, err, geometry.Logical, geometry.Physical)
	}
	sector := geometry.Sector()
	bufSize := wipe.ChooseBufferSize(geometry, int(min(uint64(opts.buf), math.MaxInt32)))
	plan, err := wipe.NewPlan(opts.passes, opts.mode, sector)
	if err != nil {
		return err
	}
	if mounts, err := b.Mounts(); err == nil {
		for _, m := range rawdev.MountsOn(mounts, opts.device) {
			fmt.Fprintf(env.stderr, "WARNING: %s is mounted on %s (%s)\n", m.Device, m.MountPoint, m.FSType)
		}
	}
	runID, err := env.newID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	fmt.Fprintf(out, "Run id: %s\n", runID)
	fmt.Fprintf(out, "Device size: %d bytes (%.2f GB)\n", size, float64(size)/(1024*1024*1024))
	fmt.Fprintf(out, "Running %d wipe passes (the last one writes zeros)...\n", plan.Passes)
	fmt.Fprintf(out, "Mode: %s\n", plan.Mode)
	fmt.Fprintf(out, "Blocks: logical = %dB, physical = %dB; buffer = %dB\n", geometry.Logical, geometry.Physical, bufSize)
	fmt.Fprintln(out, "WARNING: all data on the device will be destroyed!")
	if opts.grace > 0 {
		fmt.Fprintf(out, "Press Ctrl+C within %s to abort...\n", opts.grace)
	}

	var dash *tui.Dashboard
	if opts.ui {
		dash, err = tui.New(env.clock)
		if err != nil {
			return fmt.Errorf("start dashboard: %w", err)
		}
		defer dash.Close()
		setupDashboard(dash, opts, plan, size, geometry, bufSize, runID)
	}

	sigCtx, restoreSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	var stop <-chan struct{}
	if dash != nil {
		stop = dash.Stopped()
	}
	err = waitGrace(sigCtx, env.clock, opts.grace, stop)
	restoreSignals()
	if err != nil {
		return err
	}
	if dash != nil {
		// The passes are not interruptible, but a terminating signal must
		// not leave the terminal in the alternate screen.
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		stopWatching := closeOnSignal(dash, sigs, reraise)
		defer func() {
			signal.Stop(sigs)
			stopWatching()
		}()
	}

	buffers, err := wipe.NewBuffers(bufSize, plan.Mode.IsDirect(), sector)
	if err != nil {
		return err
	}
	defer buffers.Close()

	h, err := b.Open(opts.device, plan.Mode)
	if err != nil {
		return &wipe.Error{Kind: wipe.ErrDeviceOpen, Op: "open", Path: opts.device, Err: err}
	}
	defer h.Close()

	var tail wipe.Handle
	if plan.Mode.IsDirect() {
		tail, err = b.Open(opts.device, wipe.Fast)
		if err != nil {
			return &wipe.Error{Kind: wipe.ErrDeviceOpen, Op: "open tail handle for", Path: opts.device, Err: err}
		}
		defer tail.Close()
	}

	var reporters []wipe.Reporter
	if dash != nil {
		dash.SetLegend([]string{"Wiping. A started pass runs to completion."})
		reporters = append(reporters, dash)
	} else if !opts.quiet {
		reporters = append(reporters, wipe.NewLineReporter(out))
	}
	var exporter *metrics.Exporter
	if opts.metricsFile != "" {
		exporter = metrics.NewExporter(opts.metricsFile, runID, opts.device, plan.Passes)
		reporters = append(reporters, exporter)
	}

	engine := wipe.NewEngine(wipe.Config{
		Backend:    b,
		Path:       opts.device,
		DeviceSize: size,
		Plan:       plan,
		Buffers:    buffers,
		Tracker:    wipe.NewTracker(plan.Passes, size, env.clock, wipe.MultiReporter(reporters...)),
		TailHandle: tail,
		Announce: func(pass, passes int, p wipe.Pattern) {
			if dash != nil {
				return
			}
			if p == wipe.Zero {
				fmt.Fprintf(out, "\nFinal pass %d/%d (%s)...\n", pass, passes, p)
			} else {
				fmt.Fprintf(out, "\nPass %d/%d (%s)...\n", pass, passes, p)
			}
		},
	})
	if err := engine.Run(h); err != nil {
		return err
	}

	if dash != nil {
		dash.Close()
	}
	if exporter != nil && exporter.Err() != nil {
		fmt.Fprintf(env.stderr, "WARNING: cannot write metrics to %s: %v\n", opts.metricsFile, exporter.Err())
	}
	fmt.Fprintf(out, "\nDevice %s wiped successfully\n", opts.device)
	return nil
}

func setupDashboard(d *tui.Dashboard, opts *wipeOptions, plan wipe.Plan, size uint64, g wipe.Geometry, bufSize int, runID uuid.UUID) {
	d.SetTitle(" devwipe ")
	d.SetSummaryLines([]string{
		fmt.Sprintf("Device: %s   Size: %d bytes   Run: %s", opts.device, size, runID),
		fmt.Sprintf("Mode: %s   Blocks: logical = %dB, physical = %dB   Buffer: %dB", plan.Mode, g.Logical, g.Physical, bufSize),
		"ALL DATA ON THE DEVICE WILL BE DESTROYED",
	})
	d.SetLegend([]string{fmt.Sprintf("Starting in %s. Q, Esc or Ctrl+C aborts.", opts.grace)})
	labels := make([]string, plan.Passes)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d:%s", i+1, plan.PatternFor(i+1))
	}
	d.SetPasses(labels)
	d.Draw()
}
