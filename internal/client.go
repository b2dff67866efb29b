package internal

import (
	"context"
	"crypto/tls"
	"errors"
	urlpkg "net/url"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ahttp-dev/ahttp/internal/buffer"
	"github.com/ahttp-dev/ahttp/internal/dialer"
	"github.com/ahttp-dev/ahttp/internal/executor"
	"github.com/ahttp-dev/ahttp/internal/model"
	"github.com/ahttp-dev/ahttp/internal/obs"
	"github.com/ahttp-dev/ahttp/internal/poller"
	"github.com/ahttp-dev/ahttp/internal/wire"
)

// DefaultUserAgent goes on requests whose descriptor does not carry one.
const DefaultUserAgent = "ahttp/1.0"

var ErrNotStarted = errors.New("ahttp: client not started")

// Framer decides when the accumulated response bytes form a complete
// exchange. Implementations inspect the buffer but must not consume it.
type Framer interface {
	// OnBytes runs after every read that produced data. Returning true
	// completes the exchange with the bytes accumulated so far.
	OnBytes(buf *buffer.Buffer) bool
	// OnEOF runs when the peer closes the stream. Returning true
	// completes the exchange, false fails it as a truncated read.
	OnEOF(buf *buffer.Buffer) bool
}

// FrameUntilClose treats peer close as the end of the response.
type FrameUntilClose struct{}

func (FrameUntilClose) OnBytes(*buffer.Buffer) bool { return false }
func (FrameUntilClose) OnEOF(*buffer.Buffer) bool   { return true }

// FrameNone never completes an exchange; peer close fails the request.
type FrameNone struct{}

func (FrameNone) OnBytes(*buffer.Buffer) bool { return false }
func (FrameNone) OnEOF(*buffer.Buffer) bool   { return false }

// Submit schedules a prepared request and returns its future.
type Submit func(ctx context.Context, pr *model.PreparedRequest) *model.ResponseFuture

// Middleware wraps submission. The first Use'd middleware runs outermost.
type Middleware func(next Submit) Submit

// Config carries every knob explicitly; the zero value works.
type Config struct {
	// TLSConfig is cloned per connection, with ServerName filled from
	// the target when unset.
	TLSConfig *tls.Config
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
	// PollInterval bounds each readiness wait, and with it shutdown and
	// cancellation latency. Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Resolve customizes name resolution.
	Resolve *dialer.ResolveConfig
	// Executor runs the event loop and the submissions. Leave nil for an
	// owned pool. A supplied executor needs at least two concurrent
	// workers because the loop occupies one until Close.
	Executor executor.Executor
	Logger   obs.Logger
	Meter    obs.Meter
	// Framer decides response completion. Defaults to FrameUntilClose.
	Framer Framer
}

const (
	clientNew int32 = iota
	clientStarted
	clientClosed
)

// Client multiplexes any number of in-flight requests over one event
// loop. Submissions return immediately with a future.
type Client struct {
	loop   *Loop
	dialer *dialer.Dialer
	exec   executor.Executor
	pool   *executor.Pool // owned, nil when Config supplied the executor

	tlsBase *tls.Config
	agent   string
	framer  Framer

	phase       int32
	middlewares []Middleware
}

// New builds a stopped client; Start launches its loop.
func New(cfg Config) (*Client, error) {
	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = obs.NopLogger{}
	}
	meter := cfg.Meter
	if meter == nil {
		meter = obs.NopMeter{}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	framer := cfg.Framer
	if framer == nil {
		framer = FrameUntilClose{}
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}
	c := &Client{
		loop:    newLoop(p, interval, log, meter),
		dialer:  &dialer.Dialer{Resolve: cfg.Resolve.Clone()},
		tlsBase: cfg.TLSConfig,
		agent:   agent,
		framer:  framer,
		exec:    cfg.Executor,
	}
	if c.exec == nil {
		c.pool = executor.NewPool(0, 0)
		c.exec = c.pool
	}
	return c, nil
}

// Use appends mw to the middleware chain. Not safe to call once requests
// are in flight.
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// Start launches the event loop. Only the first call does anything.
func (c *Client) Start() error {
	if !atomic.CompareAndSwapInt32(&c.phase, clientNew, clientStarted) {
		if atomic.LoadInt32(&c.phase) == clientClosed {
			return model.ErrClosed
		}
		return nil
	}
	if err := c.exec.Submit(c.loop.run); err != nil {
		// the loop never ran, so Close must not wait on it
		atomic.StoreInt32(&c.phase, clientClosed)
		c.loop.stop()
		c.loop.closePoller()
		if c.pool != nil {
			c.pool.Close()
		}
		return err
	}
	return nil
}

// Do submits one exchange and returns its future immediately. Resolution
// and connection setup run on the executor, readiness on the loop; Do
// itself never blocks on I/O.
func (c *Client) Do(ctx context.Context, req *model.Request) *model.ResponseFuture {
	if ctx == nil {
		ctx = context.Background()
	}
	switch atomic.LoadInt32(&c.phase) {
	case clientNew:
		return failedFuture(model.KindSubmit, req, ErrNotStarted)
	case clientClosed:
		return failedFuture(model.KindSubmit, req, model.ErrClosed)
	}
	pr, err := req.Prepare(c.agent)
	if err != nil {
		return failedFuture(model.KindSubmit, req, err)
	}
	submit := c.enqueue
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		submit = c.middlewares[i](submit)
	}
	return submit(ctx, pr)
}

func failedFuture(kind model.ErrorKind, req *model.Request, err error) *model.ResponseFuture {
	fut := model.NewFuture()
	fut.Complete(nil, model.Failure(kind, req, err))
	return fut
}

func (c *Client) enqueue(ctx context.Context, pr *model.PreparedRequest) *model.ResponseFuture {
	fut := model.NewFuture()
	if err := c.exec.Submit(func() { c.connect(ctx, pr, fut) }); err != nil {
		fut.Complete(nil, model.Failure(model.KindSubmit, pr.Request, err))
	}
	return fut
}

// connect resolves the target, starts the non-blocking connect and hands
// the connection to the loop. Runs on the executor.
func (c *Client) connect(ctx context.Context, pr *model.PreparedRequest, fut *model.ResponseFuture) {
	port, _ := strconv.Atoi(pr.Port())
	fd, err := c.dialer.StartConnect(ctx, pr.Hostname(), port)
	if err != nil {
		fut.Complete(nil, model.Failure(model.KindConnect, pr.Request, err))
		return
	}
	chunks := wire.Encode(pr)
	var conn connection
	if pr.TLS() {
		conn = newTLSConn(c.loop, fd, pr, fut, ctx, c.framer, chunks, c.tlsConfig(pr))
	} else {
		conn = newPlainConn(c.loop, fd, pr, fut, ctx, c.framer, chunks)
	}
	if err := c.loop.register(conn, poller.Writable); err != nil {
		unix.Close(fd)
		fut.Complete(nil, model.Failure(model.KindConnect, pr.Request, err))
	}
}

func (c *Client) tlsConfig(pr *model.PreparedRequest) *tls.Config {
	config := c.tlsBase.Clone()
	if config == nil {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = pr.Hostname()
	}
	return config
}

// Get submits a GET for url.
func (c *Client) Get(ctx context.Context, url string, h model.Headers, auth *model.BasicAuth) *model.ResponseFuture {
	return c.Do(ctx, &model.Request{Method: "GET", URL: url, Header: h, Auth: auth})
}

// Head submits a HEAD for url.
func (c *Client) Head(ctx context.Context, url string, h model.Headers, auth *model.BasicAuth) *model.ResponseFuture {
	return c.Do(ctx, &model.Request{Method: "HEAD", URL: url, Header: h, Auth: auth})
}

// Delete submits a DELETE for url.
func (c *Client) Delete(ctx context.Context, url string, h model.Headers, auth *model.BasicAuth) *model.ResponseFuture {
	return c.Do(ctx, &model.Request{Method: "DELETE", URL: url, Header: h, Auth: auth})
}

// Put submits a PUT carrying body, any shape Prepare accepts.
func (c *Client) Put(ctx context.Context, url string, h model.Headers, body interface{}, auth *model.BasicAuth) *model.ResponseFuture {
	return c.Do(ctx, &model.Request{Method: "PUT", URL: url, Header: h, Body: body, Auth: auth})
}

// Post submits a POST. url.Values become a form-encoded body with the
// matching Content-Type unless the headers already set one.
func (c *Client) Post(ctx context.Context, url string, h model.Headers, body interface{}, auth *model.BasicAuth) *model.ResponseFuture {
	if params, ok := body.(urlpkg.Values); ok {
		h = h.Clone()
		if !h.Has("Content-Type") {
			h.Set("Content-Type", wire.FormContentType)
		}
		body = wire.EncodeForm(params)
	}
	return c.Do(ctx, &model.Request{Method: "POST", URL: url, Header: h, Body: body, Auth: auth})
}

// Close stops the loop, fails whatever is in flight and releases the
// poller. The client cannot be restarted.
func (c *Client) Close() error {
	prev := atomic.SwapInt32(&c.phase, clientClosed)
	if prev == clientClosed {
		return nil
	}
	if prev == clientStarted {
		c.loop.stop()
		c.loop.wait()
	}
	err := c.loop.closePoller()
	if c.pool != nil {
		c.pool.Close()
	}
	return err
}
