package internal

import (
	"context"
	"crypto/tls"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/ahttp-dev/ahttp/internal/dialer"
	"github.com/ahttp-dev/ahttp/internal/model"
)

// tlsConn layers the handshake driver over the plain state machine.
// While handshaking, readiness events move ciphertext between the socket
// and the engine; once the session is established the request chunks are
// wrapped into records and the exchange proceeds like a cleartext one.
type tlsConn struct {
	plainConn

	hs          *hsDriver
	handshaking bool
	pending     [][]byte // request chunks awaiting the established session
	scratch     []byte   // staging area for raw socket reads
}

func newTLSConn(l *Loop, fd int, pr *model.PreparedRequest, fut *model.ResponseFuture, ctx context.Context, fr Framer, chunks [][]byte, cfg *tls.Config) *tlsConn {
	c := &tlsConn{
		plainConn: plainConn{
			loop: l, sock: fd, req: pr, fut: fut, ctx: ctx,
			framer: fr, wq: queue.New(), st: stateConnecting,
			writeKind: model.KindHandshake,
		},
		hs:          newDriver(cfg),
		handshaking: true,
		pending:     chunks,
		scratch:     make([]byte, 16*1024),
	}
	c.self = c
	return c
}

func (c *tlsConn) shutdown() {
	// release a handshake goroutine that may still be parked
	c.hs.FeedEOF()
}

func (c *tlsConn) onConnectable() {
	if err := dialer.FinishConnect(c.sock); err != nil {
		c.fail(model.KindConnect, err)
		return
	}
	c.hs.Begin(c.ctx)
	c.advance()
}

// advance acts on the engine's demand: queue records for writing, wait
// for ciphertext, let delegated work settle, or finish.
func (c *tlsConn) advance() {
	for {
		switch c.hs.Status() {
		case hsNeedWrap:
			for _, rec := range c.hs.TakeOutput() {
				c.wq.Add(rec)
			}
			c.startWriting()
			return
		case hsNeedUnwrap:
			c.startReading()
			return
		case hsNeedTask:
			c.hs.RunTask()
		case hsDone:
			c.established()
			return
		case hsFailed:
			c.fail(model.KindHandshake, c.hs.Err())
			return
		}
	}
}

// established switches the driver to streaming, wraps the request chunks
// and starts flushing the records.
func (c *tlsConn) established() {
	c.handshaking = false
	c.writeKind = model.KindWrite
	c.hs.Stream()
	for _, chunk := range c.pending {
		if err := c.hs.Wrap(chunk); err != nil {
			c.fail(model.KindWrite, err)
			return
		}
	}
	c.pending = nil
	for _, rec := range c.hs.TakeOutput() {
		c.wq.Add(rec)
	}
	c.startWriting()
}

func (c *tlsConn) onWritable() {
	if c.pump() == pumpDrained {
		if c.handshaking {
			c.advance()
		} else {
			c.startReading()
		}
	}
}

func (c *tlsConn) onReadable() {
	for {
		n, err := unix.Read(c.sock, c.scratch)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return
			case unix.EINTR:
				continue
			}
			if c.handshaking {
				c.fail(model.KindHandshake, err)
			} else {
				c.fail(model.KindRead, err)
			}
			return
		}
		if n == 0 {
			c.hs.FeedEOF()
			if c.handshaking {
				// the engine sees EOF and fails the handshake
				c.advance()
			} else {
				c.drainPlain()
			}
			return
		}
		c.hs.Feed(c.scratch[:n])
		if c.handshaking {
			c.advance()
			if !c.handshaking || c.st != stateReading {
				return
			}
			continue
		}
		if !c.drainPlain() {
			return
		}
	}
}

// drainPlain pulls decrypted bytes into the read buffer and applies the
// framing policy. It reports whether the exchange is still in flight.
func (c *tlsConn) drainPlain() bool {
	eof, err := c.hs.Unwrap(&c.rbuf)
	if err != nil {
		c.fail(model.KindRead, err)
		return false
	}
	if c.framer.OnBytes(&c.rbuf) {
		c.succeed()
		return false
	}
	if eof {
		c.finishEOF()
		return false
	}
	return true
}
