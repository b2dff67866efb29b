//go:build darwin || freebsd

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

type kqueuePoller struct {
	fd  int
	evs []unix.Kevent_t
}

// New opens the platform poller, kqueue on this OS.
func New() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return &kqueuePoller{fd: fd}, nil
}

// apply registers both filters and enables only the requested ones, so a
// later Modify is a pure enable/disable.
func (p *kqueuePoller) apply(fd int, interest Interest) error {
	mode := func(on bool) uint16 {
		if on {
			return unix.EV_ADD | unix.EV_ENABLE
		}
		return unix.EV_ADD | unix.EV_DISABLE
	}
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: mode(interest&Readable != 0)},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: mode(interest&Writable != 0)},
	}
	_, err := unix.Kevent(p.fd, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Add(fd int, interest Interest) error {
	return p.apply(fd, interest)
}

func (p *kqueuePoller) Modify(fd int, interest Interest) error {
	return p.apply(fd, interest)
}

func (p *kqueuePoller) Remove(fd int) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	// the descriptor may have only one filter left
	if _, err := unix.Kevent(p.fd, changes[:1], nil, nil); err != nil && err != unix.ENOENT {
		return err
	}
	if _, err := unix.Kevent(p.fd, changes[1:], nil, nil); err != nil && err != unix.ENOENT {
		return err
	}
	return nil
}

func (p *kqueuePoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(p.evs) < len(events) {
		p.evs = make([]unix.Kevent_t, len(events))
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	n, err := unix.Kevent(p.fd, nil, p.evs[:len(events)], &ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		ev := p.evs[i]
		bad := ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0
		events[i] = Event{
			FD:       int(ev.Ident),
			Readable: bad || ev.Filter == unix.EVFILT_READ,
			Writable: bad || ev.Filter == unix.EVFILT_WRITE,
		}
	}
	return n, nil
}

func (p *kqueuePoller) Close() error { return unix.Close(p.fd) }
