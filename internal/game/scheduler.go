package game

import "time"

// FrameCallback runs one display-refresh tick
type FrameCallback func(now time.Time)

// FrameScheduler is the display-refresh primitive. Request arms exactly one
// future callback; Cancel drops a pending one.
type FrameScheduler interface {
	Request(cb FrameCallback)
	Cancel()
}

// ManualScheduler fires frames only when told to. Used by tests and
// headless drivers that own their own clock.
type ManualScheduler struct {
	pending FrameCallback
}

// Request arms cb, replacing any pending callback
func (m *ManualScheduler) Request(cb FrameCallback) {
	m.pending = cb
}

// Cancel drops the pending callback
func (m *ManualScheduler) Cancel() {
	m.pending = nil
}

// Pending reports whether a frame is armed
func (m *ManualScheduler) Pending() bool {
	return m.pending != nil
}

// Fire runs the pending callback, if any, and reports whether one ran
func (m *ManualScheduler) Fire(now time.Time) bool {
	cb := m.pending
	if cb == nil {
		return false
	}
	m.pending = nil
	cb(now)
	return true
}
