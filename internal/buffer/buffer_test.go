package buffer

import (
	"bytes"
	"testing"
)

func TestAlign(t *testing.T) {
	for _, c := range []struct{ n, m, want int }{
		{0, 1024, 0},
		{1, 1024, 1024},
		{1023, 1024, 1024},
		{1024, 1024, 1024},
		{1025, 1024, 2048},
		{4096, 1024, 4096},
		{5000, 1024, 5120},
	} {
		if got := align(c.n, c.m); got != c.want {
			t.Errorf("align(%d, %d) = %d, want %d", c.n, c.m, got, c.want)
		}
	}
}

func TestAlignProperties(t *testing.T) {
	const m = 1024
	for n := 0; n < 10*m; n += 7 {
		got := align(n, m)
		if got < n {
			t.Fatalf("align(%d) = %d < n", n, got)
		}
		if got%m != 0 {
			t.Fatalf("align(%d) = %d not a multiple of %d", n, got, m)
		}
		if got-n >= m {
			t.Fatalf("align(%d) = %d overshoots by a full step", n, got)
		}
	}
}

func TestGrowPreservesContent(t *testing.T) {
	for _, need := range []int{0, 1, 100, 1024, 3000} {
		var b Buffer
		content := bytes.Repeat([]byte("abcdefgh"), 300) // 2400 bytes
		b.Write(content)

		b.Grow(need)
		if b.Remaining() < need {
			t.Fatalf("Grow(%d): remaining = %d", need, b.Remaining())
		}
		if b.Cap() < need {
			t.Fatalf("Grow(%d): cap = %d", need, b.Cap())
		}
		if b.Cap()%Align != 0 {
			t.Fatalf("Grow(%d): cap %d not aligned", need, b.Cap())
		}
		if !bytes.Equal(b.Bytes(), content) {
			t.Fatalf("Grow(%d): content lost", need)
		}
	}
}

func TestGrowNoopWhenRoomEnough(t *testing.T) {
	var b Buffer
	b.Grow(10)
	if b.Cap() != Align {
		t.Fatalf("first Grow(10): cap = %d, want %d", b.Cap(), Align)
	}
	p := &b.buf[0]
	b.Grow(100)
	if &b.buf[0] != p {
		t.Fatal("Grow reallocated although capacity sufficed")
	}
}

func TestGrowFromZeroValue(t *testing.T) {
	var b Buffer
	b.Grow(1)
	if b.Cap() != Align || b.Len() != 0 {
		t.Fatalf("cap = %d, len = %d", b.Cap(), b.Len())
	}
}

func TestConsumeCompact(t *testing.T) {
	var b Buffer
	b.Write([]byte("hello world"))
	b.Consume(6)
	if got := string(b.Bytes()); got != "world" {
		t.Fatalf("after Consume: %q", got)
	}
	b.Compact()
	if got := string(b.Bytes()); got != "world" {
		t.Fatalf("after Compact: %q", got)
	}
	if b.r != 0 {
		t.Fatal("Compact did not move content to front")
	}
	b.Consume(5)
	if b.Len() != 0 || b.r != 0 || b.w != 0 {
		t.Fatal("fully consumed buffer should reset positions")
	}
}

func TestAdvanceAfterSpareFill(t *testing.T) {
	var b Buffer
	b.Grow(8)
	n := copy(b.Spare(), "payload")
	b.Advance(n)
	if got := string(b.Bytes()); got != "payload" {
		t.Fatalf("content = %q", got)
	}
}

func TestGrowReusesConsumedSpace(t *testing.T) {
	var b Buffer
	b.Grow(Align)
	b.Write(bytes.Repeat([]byte{'x'}, Align))
	b.Consume(Align - 8)
	// 8 content bytes left; room for them plus the request exists in the
	// current allocation, so growing must compact instead of reallocating.
	p := &b.buf[0]
	b.Grow(64)
	if &b.buf[0] != p {
		t.Fatal("Grow reallocated instead of compacting")
	}
	if b.Len() != 8 || b.Remaining() < 64 {
		t.Fatalf("len = %d, remaining = %d", b.Len(), b.Remaining())
	}
}
