// ABOUTME: Injectable clock and timer abstraction for the sync engine
// ABOUTME: Lets tests drive debounce and throttle behavior without wall-clock sleeps

package syncer

import "time"

// Clock supplies the engine's view of time. The engine never touches the
// time package directly, so tests can substitute a manual clock and make
// debounce and throttle behavior deterministic.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still
	// pending; a timer whose callback already ran returns false.
	Stop() bool
}

// realClock implements Clock with the time package.
type realClock struct{}

// NewClock returns the wall-clock implementation.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
