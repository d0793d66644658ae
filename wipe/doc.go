// Package wipe implements the overwrite engine used to sanitize raw block
// devices.
//
// # Overview
//
// A wipe run consists of N full-device passes. Passes 1..N-1 fill the
// device with cryptographically random bytes, pass N fills it with zeros.
// Every pass ends with a flush whose strength is selected by the SyncMode.
//
// The engine never talks to the operating system directly. Device size and
// geometry queries, opening handles and the flush primitives are provided
// by a Backend (see package rawdev for the linux and darwin
// implementations).
//
// # Usage
//
//	buffers, err := wipe.NewBuffers(wipe.ChooseBufferSize(geom, 0), mode.IsDirect(), geom.Sector())
//	tracker := wipe.NewTracker(passes, size, clock.SystemClock, wipe.NewLineReporter(os.Stdout))
//	engine := wipe.NewEngine(wipe.Config{
//		Backend:    backend,
//		Path:       path,
//		DeviceSize: size,
//		Plan:       plan,
//		Buffers:    buffers,
//		Tracker:    tracker,
//	})
//	err = engine.Run(handle)
//
// # Direct I/O
//
// With SyncMode Direct the main buffer is sector aligned and only whole
// sectors are written through the primary handle. A remainder shorter than
// one sector is written through a separate non-direct handle.
package wipe
