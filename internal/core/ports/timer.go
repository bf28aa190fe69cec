package ports

import "time"

// Timer is a cancelable one-shot with a rearm operation, scheduled on the
// owning HttpClient's SerialContext (spec.md §2, "Timer (~3%)").
type Timer interface {
	// Arm schedules fn to run after d, delivered on the owning
	// SerialContext. Arm implicitly cancels any previously armed fire.
	Arm(d time.Duration, fn func())

	// Cancel stops a pending fire, if any. Safe to call when nothing is
	// armed.
	Cancel()
}

// TimerFactory constructs Timers bound to a given SerialContext.
type TimerFactory interface {
	NewTimer(ctx SerialContext) Timer
}
