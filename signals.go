package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// screen is the part of the dashboard that must be torn down before the
// process dies.
type screen interface {
	Close()
}

// closeOnSignal closes s when a signal arrives on sigs and then hands the
// signal to raise. The returned function stops watching.
func closeOnSignal(s screen, sigs <-chan os.Signal, raise func(os.Signal)) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case sig := <-sigs:
			s.Close()
			raise(sig)
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// reraise delivers sig again with its default action. If the process
// survives that, it exits with the shell's 128+signal convention.
func reraise(sig os.Signal) {
	signal.Reset(sig)
	if p, err := os.FindProcess(os.Getpid()); err == nil {
		_ = p.Signal(sig)
	}
	time.Sleep(time.Second)
	code := 1
	if s, ok := sig.(syscall.Signal); ok {
		code = 128 + int(s)
	}
	os.Exit(code)
}
