// Package poller wraps the platform readiness facility behind a small
// level-triggered interface.
package poller

import "time"

// Interest selects which readiness conditions a descriptor is watched for.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Event reports readiness for one descriptor. Error and hangup conditions
// surface as both readable and writable so the owner discovers the cause
// from the failing syscall.
type Event struct {
	FD       int
	Readable bool
	Writable bool
}

// Poller multiplexes readiness over registered descriptors. Registration
// calls are safe to issue while another goroutine sits in Wait; a wait in
// progress observes the change.
type Poller interface {
	Add(fd int, interest Interest) error
	Modify(fd int, interest Interest) error
	Remove(fd int) error
	// Wait fills events with ready descriptors and returns how many. A
	// zero timeout polls without blocking; an interrupted wait returns 0.
	Wait(events []Event, timeout time.Duration) (int, error)
	Close() error
}
