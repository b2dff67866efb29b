package internal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ahttp-dev/ahttp/internal/model"
	"github.com/ahttp-dev/ahttp/internal/obs"
	"github.com/ahttp-dev/ahttp/internal/poller"
)

// DefaultPollInterval bounds how long a tick waits for readiness, and with
// it the latency of stop and of the cancellation sweep.
const DefaultPollInterval = 100 * time.Millisecond

const maxEvents = 128

// Loop owns the poller and every in-flight connection. Handlers run on
// the loop's goroutine only; the registry is the one shared surface and
// sits behind its mutex.
type Loop struct {
	poller   poller.Poller
	interval time.Duration
	log      obs.Logger
	meter    obs.Meter

	mu      sync.Mutex
	conns   map[int]connection
	stopped int32

	done   chan struct{}
	events []poller.Event
}

func newLoop(p poller.Poller, interval time.Duration, log obs.Logger, meter obs.Meter) *Loop {
	return &Loop{
		poller:   p,
		interval: interval,
		log:      log,
		meter:    meter,
		conns:    make(map[int]connection),
		done:     make(chan struct{}),
		events:   make([]poller.Event, maxEvents),
	}
}

// register hands a connection to the loop. The descriptor must be
// non-blocking with its connect already in flight.
func (l *Loop) register(c connection, interest poller.Interest) error {
	l.mu.Lock()
	if atomic.LoadInt32(&l.stopped) == 1 {
		l.mu.Unlock()
		return model.ErrClosed
	}
	l.conns[c.fd()] = c
	l.mu.Unlock()

	if err := l.poller.Add(c.fd(), interest); err != nil {
		l.mu.Lock()
		delete(l.conns, c.fd())
		l.mu.Unlock()
		return err
	}
	l.meter.Count("conns_registered", 1)
	return nil
}

func (l *Loop) rearm(fd int, interest poller.Interest) error {
	return l.poller.Modify(fd, interest)
}

func (l *Loop) lookup(fd int) connection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conns[fd]
}

// finish settles the connection's future and tears the descriptor down.
// The complete-once cell makes a second finish against the same
// connection a no-op apart from the teardown, which detach de-dupes.
func (l *Loop) finish(c connection, resp *model.Response, err error) {
	if c.future().Complete(resp, err) {
		if err != nil {
			l.meter.Count("requests_failed", 1)
		} else {
			l.meter.Count("requests_completed", 1)
		}
	}
	c.shutdown()
	l.detach(c.fd())
}

// detach drops the descriptor from the loop and closes it.
func (l *Loop) detach(fd int) {
	l.mu.Lock()
	_, ok := l.conns[fd]
	delete(l.conns, fd)
	l.mu.Unlock()
	if ok {
		l.poller.Remove(fd)
		unix.Close(fd)
	}
}

// run ticks until stop, then fails whatever is still in flight. It
// occupies its executor worker for the client's lifetime.
func (l *Loop) run() {
	defer close(l.done)
	for atomic.LoadInt32(&l.stopped) == 0 {
		l.tick()
	}
	l.teardown()
}

func (l *Loop) tick() {
	n, err := l.poller.Wait(l.events, l.interval)
	if err != nil {
		l.log.Logf(obs.LevelError, "poll: %v", err)
		time.Sleep(l.interval)
		return
	}
	l.meter.Count("loop_ticks", 1)
	for i := 0; i < n; i++ {
		ev := l.events[i]
		c := l.lookup(ev.FD)
		if c == nil {
			continue // torn down earlier in this tick
		}
		l.dispatch(c, ev)
	}
	l.sweep()
}

// dispatch routes one event to exactly one handler: connect completion
// first, then writes, then reads, each gated on the connection's state.
func (l *Loop) dispatch(c connection, ev poller.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Logf(obs.LevelError, "fd %d handler panic: %v", c.fd(), r)
			l.finish(c, nil, model.Failure(stateKind(c.state()), c.request(), fmt.Errorf("handler panic: %v", r)))
		}
	}()
	l.meter.Count("loop_dispatched", 1)
	switch {
	case c.state() == stateConnecting && ev.Writable:
		c.onConnectable()
	case c.state() == stateWriting && ev.Writable:
		c.onWritable()
	case c.state() == stateReading && ev.Readable:
		c.onReadable()
	}
}

func stateKind(st connState) model.ErrorKind {
	switch st {
	case stateConnecting:
		return model.KindConnect
	case stateWriting:
		return model.KindWrite
	default:
		return model.KindRead
	}
}

// sweep fails the connections whose contexts expired since the last tick.
func (l *Loop) sweep() {
	var expired []connection
	l.mu.Lock()
	for _, c := range l.conns {
		select {
		case <-c.context().Done():
			expired = append(expired, c)
		default:
		}
	}
	l.mu.Unlock()
	for _, c := range expired {
		l.finish(c, nil, model.Failure(model.KindCanceled, c.request(), c.context().Err()))
	}
}

func (l *Loop) teardown() {
	l.mu.Lock()
	rest := make([]connection, 0, len(l.conns))
	for _, c := range l.conns {
		rest = append(rest, c)
	}
	l.mu.Unlock()
	for _, c := range rest {
		l.finish(c, nil, model.Failure(model.KindCanceled, c.request(), model.ErrClosed))
	}
}

// stop makes run exit after its current tick. register observes the flag
// under the registry mutex, so no connection slips past teardown.
func (l *Loop) stop() {
	l.mu.Lock()
	atomic.StoreInt32(&l.stopped, 1)
	l.mu.Unlock()
}

func (l *Loop) wait() { <-l.done }

func (l *Loop) closePoller() error { return l.poller.Close() }
