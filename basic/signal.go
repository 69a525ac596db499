/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package basic

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptError reports that a step was killed because the run received
// Signal.
type InterruptError struct {
	Signal os.Signal
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("interrupted by %v", e.Signal)
}

// ExitCode is 128 plus the signal number, like a shell killed by it.
func (e *InterruptError) ExitCode() int {
	if sig, ok := e.Signal.(syscall.Signal); ok {
		return ExitSignalBase + int(sig)
	}
	return ExitInterrupted
}

type signalKey struct{}

type receivedSignal struct {
	mu  sync.Mutex
	sig os.Signal
}

// NotifyContext works like signal.NotifyContext, and also remembers the
// signal that canceled the context for ReceivedSignal.
func NotifyContext(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	received := &receivedSignal{}
	ctx, cancel := context.WithCancel(context.WithValue(parent, signalKey{}, received))
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		select {
		case sig := <-ch:
			received.mu.Lock()
			received.sig = sig
			received.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}

// ReceivedSignal returns the signal that canceled a context created by
// NotifyContext.
func ReceivedSignal(ctx context.Context) (os.Signal, bool) {
	received, ok := ctx.Value(signalKey{}).(*receivedSignal)
	if !ok {
		return nil, false
	}
	received.mu.Lock()
	defer received.mu.Unlock()
	return received.sig, received.sig != nil
}
