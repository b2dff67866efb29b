//go:build linux

package poller

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func pair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerReadReadiness(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, b := pair(t)
	if err := p.Add(a, Readable); err != nil {
		t.Fatal(err)
	}

	events := make([]Event, 4)
	n, err := p.Wait(events, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("events before write = %d", n)
	}

	if _, err := unix.Write(b, []byte("x")); err != nil {
		t.Fatal(err)
	}
	n, err = p.Wait(events, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || events[0].FD != a || !events[0].Readable {
		t.Fatalf("events = %d %+v", n, events[0])
	}
}

func TestPollerWriteReadiness(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, _ := pair(t)
	if err := p.Add(a, Writable); err != nil {
		t.Fatal(err)
	}
	events := make([]Event, 4)
	n, err := p.Wait(events, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !events[0].Writable {
		t.Fatalf("idle socket not writable: %d %+v", n, events[0])
	}

	// after Modify the descriptor is only watched for reads
	if err := p.Modify(a, Readable); err != nil {
		t.Fatal(err)
	}
	if n, _ = p.Wait(events, 0); n != 0 {
		t.Fatalf("events after Modify = %d", n)
	}
}

func TestPollerRemove(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, b := pair(t)
	if err := p.Add(a, Readable); err != nil {
		t.Fatal(err)
	}
	if err := p.Remove(a); err != nil {
		t.Fatal(err)
	}
	if _, err := unix.Write(b, []byte("x")); err != nil {
		t.Fatal(err)
	}
	events := make([]Event, 4)
	if n, _ := p.Wait(events, 0); n != 0 {
		t.Fatalf("events after Remove = %d", n)
	}
}

func TestPollerPeerClose(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a, b := pair(t)
	if err := p.Add(a, Readable); err != nil {
		t.Fatal(err)
	}
	unix.Close(b)
	events := make([]Event, 4)
	n, err := p.Wait(events, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !events[0].Readable {
		t.Fatalf("peer close not readable: %d %+v", n, events[0])
	}
}
