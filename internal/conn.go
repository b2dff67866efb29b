package internal

import (
	"context"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/ahttp-dev/ahttp/internal/buffer"
	"github.com/ahttp-dev/ahttp/internal/dialer"
	"github.com/ahttp-dev/ahttp/internal/model"
	"github.com/ahttp-dev/ahttp/internal/poller"
)

type connState int

const (
	stateConnecting connState = iota
	stateWriting
	stateReading
	stateDone
)

// readQuantum is the spare capacity the read buffer guarantees before
// each socket read.
const readQuantum = 4096

// connection is one in-flight exchange. After register only the loop's
// goroutine touches it.
type connection interface {
	fd() int
	state() connState
	context() context.Context
	request() *model.Request
	future() *model.ResponseFuture
	onConnectable()
	onWritable()
	onReadable()
	shutdown()
}

type pumpResult int

const (
	pumpDrained pumpResult = iota
	pumpBlocked
	pumpFailed
)

// plainConn drives one cleartext exchange through the
// Connecting, Writing, Reading, Done states.
type plainConn struct {
	loop *Loop
	sock int
	req  *model.PreparedRequest
	fut  *model.ResponseFuture
	ctx  context.Context

	// self is the registered connection, the embedding type for TLS.
	// Teardown goes through it so the right shutdown runs.
	self connection

	st     connState
	wq     *queue.Queue
	off    int // write progress into the queue head
	rbuf   buffer.Buffer
	framer Framer

	// writeKind classifies write failures; TLS remaps it while records
	// belong to the handshake.
	writeKind model.ErrorKind
}

func newPlainConn(l *Loop, fd int, pr *model.PreparedRequest, fut *model.ResponseFuture, ctx context.Context, fr Framer, chunks [][]byte) *plainConn {
	c := &plainConn{
		loop: l, sock: fd, req: pr, fut: fut, ctx: ctx,
		framer: fr, wq: queue.New(), st: stateConnecting,
		writeKind: model.KindWrite,
	}
	c.self = c
	for _, b := range chunks {
		c.wq.Add(b)
	}
	return c
}

func (c *plainConn) fd() int                       { return c.sock }
func (c *plainConn) state() connState              { return c.st }
func (c *plainConn) context() context.Context      { return c.ctx }
func (c *plainConn) request() *model.Request       { return c.req.Request }
func (c *plainConn) future() *model.ResponseFuture { return c.fut }
func (c *plainConn) shutdown()                     {}

func (c *plainConn) onConnectable() {
	if err := dialer.FinishConnect(c.sock); err != nil {
		c.fail(model.KindConnect, err)
		return
	}
	c.startWriting()
}

func (c *plainConn) onWritable() {
	if c.pump() == pumpDrained {
		c.startReading()
	}
}

// pump writes queued chunks until the queue drains, the socket blocks or
// the write fails.
func (c *plainConn) pump() pumpResult {
	for c.wq.Length() > 0 {
		chunk := c.wq.Peek().([]byte)
		for c.off < len(chunk) {
			n, err := unix.Write(c.sock, chunk[c.off:])
			if n > 0 {
				c.off += n
			}
			if err != nil {
				switch err {
				case unix.EAGAIN:
					return pumpBlocked
				case unix.EINTR:
					continue
				}
				c.fail(c.writeKind, err)
				return pumpFailed
			}
		}
		c.wq.Remove()
		c.off = 0
	}
	return pumpDrained
}

func (c *plainConn) onReadable() {
	for {
		c.rbuf.Grow(readQuantum)
		n, err := unix.Read(c.sock, c.rbuf.Spare())
		if err != nil {
			switch err {
			case unix.EAGAIN:
				// nothing buffered, keep waiting
				return
			case unix.EINTR:
				continue
			}
			c.fail(model.KindRead, err)
			return
		}
		if n == 0 {
			// peer closed
			c.finishEOF()
			return
		}
		c.rbuf.Advance(n)
		if c.framer.OnBytes(&c.rbuf) {
			c.succeed()
			return
		}
	}
}

func (c *plainConn) finishEOF() {
	if c.framer.OnEOF(&c.rbuf) {
		c.succeed()
		return
	}
	c.fail(model.KindRead, nil)
}

func (c *plainConn) startWriting() {
	c.st = stateWriting
	if err := c.loop.rearm(c.sock, poller.Writable); err != nil {
		c.fail(c.writeKind, err)
	}
}

func (c *plainConn) startReading() {
	c.st = stateReading
	if err := c.loop.rearm(c.sock, poller.Readable); err != nil {
		c.fail(model.KindRead, err)
	}
}

func (c *plainConn) succeed() {
	raw := make([]byte, c.rbuf.Len())
	copy(raw, c.rbuf.Bytes())
	c.st = stateDone
	c.loop.finish(c.self, &model.Response{Request: c.req.Request, Raw: raw}, nil)
}

func (c *plainConn) fail(kind model.ErrorKind, cause error) {
	c.st = stateDone
	c.loop.finish(c.self, nil, model.Failure(kind, c.req.Request, cause))
}
