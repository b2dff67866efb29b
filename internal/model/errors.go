package model

import "errors"

// ErrClosed is returned for submissions after the client was closed.
var ErrClosed = errors.New("ahttp: client closed")

// ErrorKind names the lifecycle stage a request failed in.
type ErrorKind int

const (
	KindSubmit ErrorKind = iota
	KindConnect
	KindWrite
	KindRead
	KindHandshake
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindSubmit:
		return "submit"
	case KindConnect:
		return "connect"
	case KindWrite:
		return "write"
	case KindRead:
		return "read"
	case KindHandshake:
		return "handshake"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

// RequestError is how a request fails: the stage it failed in, the request
// it belonged to and the underlying cause, if any.
type RequestError struct {
	Kind    ErrorKind
	Request *Request
	Cause   error
}

func (e *RequestError) Error() string {
	msg := e.Kind.String() + " failed"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Cause }

// Failure wraps cause into a RequestError for req at the given stage.
func Failure(kind ErrorKind, req *Request, cause error) *RequestError {
	return &RequestError{Kind: kind, Request: req, Cause: cause}
}
