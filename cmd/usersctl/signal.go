package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// interrupter cancels the running command when a signal is received, so one command can be stopped without ending an interactive session.
// A signal while no command is running, or a second signal for the same command, exits the process.
type interrupter struct {
	logger *slog.Logger
	sigs   chan os.Signal
	done   chan struct{}
	exited chan struct{}
	exit   func(code int)

	mux         sync.Mutex
	cancel      context.CancelFunc
	interrupted bool
}

func newInterrupter(logger *slog.Logger, signals ...os.Signal) *interrupter {
	if len(signals) == 0 {
		panic("no signals passed to newInterrupter")
	}
	i := &interrupter{
		logger: logger,
		sigs:   make(chan os.Signal, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		exit:   os.Exit,
	}
	signal.Notify(i.sigs, signals...)
	go i.listen()
	return i
}

func (i *interrupter) listen() {
	defer close(i.exited)
	for {
		select {
		case <-i.done:
			return
		case sig := <-i.sigs:
			if !i.interrupt(sig) {
				i.exit(1)
				return
			}
		}
	}
}

// interrupt cancels the running command, and returns false if there was nothing left to cancel.
func (i *interrupter) interrupt(sig os.Signal) bool {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.cancel == nil || i.interrupted {
		return false
	}
	i.logger.Debug("Cancelling command", "signal", sig)
	i.interrupted = true
	i.cancel()
	return true
}

// commandContext derives the context of one command, and is used with [cli.Registry.SetCommandContext].
func (i *interrupter) commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	i.mux.Lock()
	i.cancel = cancel
	i.interrupted = false
	i.mux.Unlock()
	return ctx, func() {
		i.mux.Lock()
		i.cancel = nil
		i.mux.Unlock()
		cancel()
	}
}

func (i *interrupter) running() bool {
	i.mux.Lock()
	defer i.mux.Unlock()
	return i.cancel != nil
}

// stop stops listening for signals and waits for the listener to return.
func (i *interrupter) stop() {
	signal.Stop(i.sigs)
	select {
	case <-i.exited:
	default:
		close(i.done)
		<-i.exited
	}
}
