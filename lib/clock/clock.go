// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() with deterministic time
// control.
//
// Every function in this repository that needs time.Now, time.After,
// or time.Sleep takes a Clock (or is a method on a struct holding one)
// instead of calling the time package directly. The listing cache's
// TTL, the retry helper's backoff, and the rate-limit tracker's reset
// waits are all driven through this interface so their tests run in
// zero wall-clock time.
package clock

import "time"

// Clock provides the time operations used by this repository.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After. If d <= 0, the
	// channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	// Equivalent to time.Sleep.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
