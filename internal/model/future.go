package model

import (
	"context"
	"sync"
)

// ResponseFuture is the handle a submit returns immediately. It settles
// exactly once, with either a response or an error; later completion
// attempts are dropped.
type ResponseFuture struct {
	done     chan struct{}
	doneOnce sync.Once

	resp *Response
	err  error
}

func NewFuture() *ResponseFuture {
	return &ResponseFuture{done: make(chan struct{})}
}

// Complete settles the future. It reports whether this call was the one
// that won; losers leave the stored result untouched.
func (f *ResponseFuture) Complete(resp *Response, err error) bool {
	won := false
	f.doneOnce.Do(func() {
		f.resp, f.err = resp, err
		won = true
		close(f.done)
	})
	return won
}

// Done returns a channel closed when the future settles.
func (f *ResponseFuture) Done() <-chan struct{} { return f.done }

// Result returns the settled outcome. Valid only after Done is closed.
func (f *ResponseFuture) Result() (*Response, error) { return f.resp, f.err }

// Wait blocks until the future settles or ctx expires.
func (f *ResponseFuture) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
