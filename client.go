package ahttp

import (
	"github.com/ahttp-dev/ahttp/internal"
	"github.com/ahttp-dev/ahttp/internal/executor"
	"github.com/ahttp-dev/ahttp/internal/obs"
)

// Client multiplexes any number of in-flight requests over a single event
// loop. Submissions return a future immediately; no goroutine ever blocks
// on another request's socket.
type Client = internal.Client

// Config carries every knob explicitly; the zero value works.
type Config = internal.Config

// Middleware wraps submission. The first middleware passed to [Client.Use]
// runs outermost.
type Middleware = internal.Middleware
type Submit = internal.Submit

// Executor runs the client's background work. Implementations need at
// least two concurrent workers because the event loop parks on one until
// the client closes. Leave [Config.Executor] nil for an owned pool.
type Executor = executor.Executor

type Logger = obs.Logger
type StdLogger = obs.StdLogger
type Level = obs.Level

const (
	LevelDebug = obs.LevelDebug
	LevelInfo  = obs.LevelInfo
	LevelWarn  = obs.LevelWarn
	LevelError = obs.LevelError
)

type Meter = obs.Meter
type Label = obs.Label

const DefaultUserAgent = internal.DefaultUserAgent

// DefaultPollInterval bounds each readiness wait, and with it the latency
// of Close and of context cancellation.
const DefaultPollInterval = internal.DefaultPollInterval

// New builds a stopped client from cfg; Start launches its loop.
func New(cfg Config) (*Client, error) {
	return internal.New(cfg)
}
