// package buffer implements the byte buffer the connection engine reads
// sockets into. It grows in fixed 1KiB-aligned steps and never discards
// content that was already written.
package buffer

// Align is the allocation step. Capacities are always rounded up to a
// multiple of it.
const Align = 1024

// Buffer is a growable byte region. buf[r:w] holds unconsumed content,
// buf[w:] is spare capacity for the next read. The zero value is an empty
// buffer with no storage.
type Buffer struct {
	buf []byte
	r   int
	w   int
}

// Len returns the number of unconsumed content bytes.
func (b *Buffer) Len() int { return b.w - b.r }

// Cap returns the total allocated capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Remaining returns the spare capacity available for writing.
func (b *Buffer) Remaining() int { return len(b.buf) - b.w }

// Bytes returns the unconsumed content. The slice aliases the buffer and is
// only valid until the next Grow or Compact.
func (b *Buffer) Bytes() []byte { return b.buf[b.r:b.w] }

// Spare returns the writable region after the content. Fill it and record
// the amount with Advance.
func (b *Buffer) Spare() []byte { return b.buf[b.w:] }

// Advance marks n spare bytes as written content.
func (b *Buffer) Advance(n int) { b.w += n }

// Grow ensures at least need bytes of spare capacity. When the current
// allocation suffices it does nothing; otherwise it allocates the next
// 1KiB-aligned size that fits content plus need and copies the content
// forward, releasing the old storage.
func (b *Buffer) Grow(need int) {
	if need <= b.Remaining() {
		return
	}
	if b.r > 0 && need <= len(b.buf)-b.Len() {
		b.Compact()
		return
	}
	grown := make([]byte, align(b.Len()+need, Align))
	n := copy(grown, b.buf[b.r:b.w])
	b.buf, b.r, b.w = grown, 0, n
}

// Compact moves unconsumed content to the front of the storage so the space
// held by consumed bytes becomes writable again.
func (b *Buffer) Compact() {
	if b.r == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.r:b.w])
	b.r, b.w = 0, n
}

// Consume drops the first n content bytes.
func (b *Buffer) Consume(n int) {
	b.r += n
	if b.r >= b.w {
		b.r, b.w = 0, 0
	}
}

// Reset drops all content, keeping the allocation.
func (b *Buffer) Reset() { b.r, b.w = 0, 0 }

// Write appends p to the content, growing as required. It never fails; the
// error is always nil and exists to satisfy io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Grow(len(p))
	n := copy(b.buf[b.w:], p)
	b.w += n
	return n, nil
}

// align returns the smallest multiple of m that is >= n.
func align(n, m int) int {
	if r := n % m; r != 0 {
		return n + m - r
	}
	return n
}
