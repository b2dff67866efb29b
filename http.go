package ahttp

import (
	"github.com/ahttp-dev/ahttp/internal"
	"github.com/ahttp-dev/ahttp/internal/model"
)

type Request = model.Request
type PreparedRequest = model.PreparedRequest
type Response = model.Response
type ResponseFuture = model.ResponseFuture

// Headers is an ordered multimap of header fields. The zero value is
// empty and ready to use.
type Headers = model.Headers
type BasicAuth = model.BasicAuth

// Framer decides when a response image is complete. The default,
// FrameUntilClose, takes the peer's close as the end of the response.
type Framer = internal.Framer
type FrameUntilClose = internal.FrameUntilClose
type FrameNone = internal.FrameNone

// RequestError is how a request fails: the lifecycle stage it failed in,
// the request it belonged to and the underlying cause, if any.
type RequestError = model.RequestError
type ErrorKind = model.ErrorKind

const (
	KindSubmit    = model.KindSubmit
	KindConnect   = model.KindConnect
	KindWrite     = model.KindWrite
	KindRead      = model.KindRead
	KindHandshake = model.KindHandshake
	KindCanceled  = model.KindCanceled
)

var (
	// ErrClosed reports a submission against a closed client.
	ErrClosed = model.ErrClosed
	// ErrNotStarted reports a submission before Start.
	ErrNotStarted = internal.ErrNotStarted
)

// NewHeaders builds Headers from alternating name, value arguments.
func NewHeaders(pairs ...string) Headers {
	return model.NewHeaders(pairs...)
}
