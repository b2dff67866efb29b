//go:build linux

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	fd  int
	evs []unix.EpollEvent
}

// New opens the platform poller, epoll on this OS.
func New() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{fd: fd}, nil
}

func epollMask(interest Interest) uint32 {
	var mask uint32
	if interest&Readable != 0 {
		mask |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&Writable != 0 {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func (p *epollPoller) ctl(op, fd int, interest Interest) error {
	return unix.EpollCtl(p.fd, op, fd, &unix.EpollEvent{
		Events: epollMask(interest),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Add(fd int, interest Interest) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, interest)
}

func (p *epollPoller) Modify(fd int, interest Interest) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, interest)
}

func (p *epollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(p.evs) < len(events) {
		p.evs = make([]unix.EpollEvent, len(events))
	}
	n, err := unix.EpollWait(p.fd, p.evs[:len(events)], int(timeout/time.Millisecond))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		ev := p.evs[i]
		bad := ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
		events[i] = Event{
			FD:       int(ev.Fd),
			Readable: bad || ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0,
			Writable: bad || ev.Events&unix.EPOLLOUT != 0,
		}
	}
	return n, nil
}

func (p *epollPoller) Close() error { return unix.Close(p.fd) }
