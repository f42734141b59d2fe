package engine

import "time"

// Scheduling defaults.
const (
	// DefaultSlice is how much time a scheduler grants per work-loop
	// invocation.
	DefaultSlice = 16 * time.Millisecond

	// DefaultMinBudget is the remaining-slice threshold below which the
	// work loop yields.
	DefaultMinBudget = time.Millisecond
)

// Scheduler decides when the engine's work loop gets its next time slice.
// Schedule asks for run to be invoked exactly once with the deadline by
// which it should yield; the engine re-schedules itself while work remains.
type Scheduler interface {
	Schedule(run func(deadline time.Time))
}

// TimerScheduler delivers slices asynchronously from a timer goroutine.
//
// Because delivery happens off the caller's goroutine, it only preserves
// the engine's single-goroutine confinement when nothing else touches the
// engine, or when the host routes both scheduling and input through one
// loop the way pkg/server's session does.
type TimerScheduler struct {
	// Slice is the per-invocation time budget. DefaultSlice when zero.
	Slice time.Duration
}

// Schedule implements Scheduler.
func (s TimerScheduler) Schedule(run func(deadline time.Time)) {
	slice := s.Slice
	if slice <= 0 {
		slice = DefaultSlice
	}
	time.AfterFunc(0, func() {
		run(time.Now().Add(slice))
	})
}

// SyncScheduler invokes the work loop inline on the calling goroutine,
// draining a render pass to completion before Schedule returns. Tests and
// batch tools use it; the deadline math still applies, so a pass spanning
// many slices re-enters Schedule until done.
type SyncScheduler struct {
	// Slice is the per-invocation time budget. DefaultSlice when zero.
	Slice time.Duration
}

// Schedule implements Scheduler.
func (s SyncScheduler) Schedule(run func(deadline time.Time)) {
	slice := s.Slice
	if slice <= 0 {
		slice = DefaultSlice
	}
	run(time.Now().Add(slice))
}
