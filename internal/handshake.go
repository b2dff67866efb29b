package internal

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/ahttp-dev/ahttp/internal/buffer"
)

// hsStatus is the engine's current demand on the transport.
type hsStatus int

const (
	hsNeedWrap hsStatus = iota
	hsNeedUnwrap
	hsNeedTask
	hsDone
	hsFailed
)

func (s hsStatus) String() string {
	switch s {
	case hsNeedWrap:
		return "need-wrap"
	case hsNeedUnwrap:
		return "need-unwrap"
	case hsNeedTask:
		return "need-task"
	case hsDone:
		return "done"
	case hsFailed:
		return "failed"
	}
	return "unknown"
}

// errWouldBlock tells the engine that no ciphertext is buffered right now.
// It reports Temporary so crypto/tls does not latch it as the connection
// error, which keeps the session usable once more records arrive.
var errWouldBlock net.Error = &wouldBlockError{}

type wouldBlockError struct{}

func (*wouldBlockError) Error() string   { return "no buffered records" }
func (*wouldBlockError) Timeout() bool   { return false }
func (*wouldBlockError) Temporary() bool { return true }

// engineConn is the virtual transport the TLS engine runs over. The
// engine's handshake goroutine blocks in Read until the loop feeds
// ciphertext; Write only queues records for the loop to flush. After the
// handshake the stream flag turns an empty Read into errWouldBlock so the
// loop is never parked on.
type engineConn struct {
	mu   sync.Mutex
	cond *sync.Cond

	in     buffer.Buffer
	out    *queue.Queue
	parked bool
	eof    bool
	stream bool
}

func newEngineConn() *engineConn {
	c := &engineConn{out: queue.New()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *engineConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.in.Len() == 0 && !c.eof && !c.stream {
		c.parked = true
		c.cond.Broadcast()
		c.cond.Wait()
	}
	c.parked = false
	if c.in.Len() == 0 {
		if c.eof {
			return 0, io.EOF
		}
		return 0, errWouldBlock
	}
	n := copy(p, c.in.Bytes())
	c.in.Consume(n)
	return n, nil
}

func (c *engineConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := make([]byte, len(p))
	copy(rec, p)
	c.out.Add(rec)
	c.cond.Broadcast()
	return len(p), nil
}

// Close unblocks a parked Read. crypto/tls closes the transport when a
// handshake context is canceled.
func (c *engineConn) Close() error {
	c.mu.Lock()
	c.eof = true
	c.cond.Broadcast()
	c.mu.Unlock()
	return nil
}

type engineAddr struct{}

func (engineAddr) Network() string { return "ahttp" }
func (engineAddr) String() string  { return "engine" }

func (c *engineConn) LocalAddr() net.Addr                { return engineAddr{} }
func (c *engineConn) RemoteAddr() net.Addr               { return engineAddr{} }
func (c *engineConn) SetDeadline(t time.Time) error      { return nil }
func (c *engineConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *engineConn) SetWriteDeadline(t time.Time) error { return nil }

// hsDriver drives a TLS session whose transport is the event loop. The
// handshake runs on its own goroutine against engineConn; the loop moves
// bytes between socket and engine according to Status. After the
// handshake completes every call runs inline on the loop.
type hsDriver struct {
	tconn *tls.Conn
	ec    *engineConn

	// guarded by ec.mu
	started bool
	done    bool
	err     error
}

func newDriver(cfg *tls.Config) *hsDriver {
	ec := newEngineConn()
	return &hsDriver{tconn: tls.Client(ec, cfg), ec: ec}
}

// Begin starts the engine and waits for it to settle on its first
// transport demand, the first flight of records in practice.
func (d *hsDriver) Begin(ctx context.Context) {
	d.ec.mu.Lock()
	d.started = true
	d.ec.mu.Unlock()
	go func() {
		err := d.tconn.HandshakeContext(ctx)
		d.ec.mu.Lock()
		d.done, d.err = true, err
		d.ec.cond.Broadcast()
		d.ec.mu.Unlock()
	}()
	d.waitSettle()
}

// waitSettle blocks until the engine finished, produced output, or parked
// with nothing left to consume. A park with pending input, or one the EOF
// mark is about to break, means the engine still has work to digest.
func (d *hsDriver) waitSettle() {
	d.ec.mu.Lock()
	for !d.done && d.ec.out.Length() == 0 && !(d.ec.parked && d.ec.in.Len() == 0 && !d.ec.eof) {
		d.ec.cond.Wait()
	}
	d.ec.mu.Unlock()
}

// Status reports the engine's demand. Pending output always wins so
// queued flights are flushed before waiting for the peer, and before
// completion is reported: the engine can finish with its last flight,
// or a closing alert, still queued.
func (d *hsDriver) Status() hsStatus {
	d.ec.mu.Lock()
	defer d.ec.mu.Unlock()
	if d.ec.out.Length() > 0 {
		return hsNeedWrap
	}
	if d.done {
		if d.err != nil {
			return hsFailed
		}
		return hsDone
	}
	if d.ec.parked && d.ec.in.Len() == 0 && !d.ec.eof {
		return hsNeedUnwrap
	}
	return hsNeedTask
}

// Err returns the handshake result once Status reports failure.
func (d *hsDriver) Err() error {
	d.ec.mu.Lock()
	defer d.ec.mu.Unlock()
	return d.err
}

// Feed hands ciphertext from the network to the engine and, while the
// handshake is running, waits for it to settle on its next demand.
func (d *hsDriver) Feed(b []byte) {
	d.ec.mu.Lock()
	d.ec.in.Write(b)
	done := d.done
	d.ec.cond.Broadcast()
	d.ec.mu.Unlock()
	if !done {
		d.waitSettle()
	}
}

// FeedEOF marks the network stream closed. A parked handshake wakes and
// fails; an established session sees end of stream on its next read.
func (d *hsDriver) FeedEOF() {
	d.ec.mu.Lock()
	d.ec.eof = true
	settle := d.started && !d.done
	d.ec.cond.Broadcast()
	d.ec.mu.Unlock()
	if settle {
		d.waitSettle()
	}
}

// TakeOutput removes and returns the queued ciphertext records in order.
func (d *hsDriver) TakeOutput() [][]byte {
	d.ec.mu.Lock()
	defer d.ec.mu.Unlock()
	recs := make([][]byte, 0, d.ec.out.Length())
	for d.ec.out.Length() > 0 {
		recs = append(recs, d.ec.out.Remove().([]byte))
	}
	return recs
}

// RunTask blocks until the engine's current work settles into a transport
// demand. The crypto runs concurrently but the loop stalls here, which is
// the known cost of running delegated work inline.
func (d *hsDriver) RunTask() {
	d.waitSettle()
}

// Stream switches the virtual transport into its post-handshake mode.
func (d *hsDriver) Stream() {
	d.ec.mu.Lock()
	d.ec.stream = true
	d.ec.cond.Broadcast()
	d.ec.mu.Unlock()
}

// Wrap passes plaintext through the engine; the resulting records land in
// the output queue.
func (d *hsDriver) Wrap(p []byte) error {
	_, err := d.tconn.Write(p)
	return err
}

// Unwrap drains whatever plaintext the engine can produce from the fed
// ciphertext into dst. It reports end of stream when the peer's close is
// seen, with a missing close-notify treated the same as a clean one.
func (d *hsDriver) Unwrap(dst *buffer.Buffer) (bool, error) {
	for {
		dst.Grow(readQuantum)
		n, err := d.tconn.Read(dst.Spare())
		if n > 0 {
			dst.Advance(n)
		}
		if err != nil {
			if err == errWouldBlock {
				return false, nil
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return true, nil
			}
			return false, err
		}
	}
}
