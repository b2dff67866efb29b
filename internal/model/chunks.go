package model

import (
	"bytes"
	"strings"
)

// appendChunks normalizes a body value into byte chunks, appending to dst.
// Byte slices pass through as-is, strings become their UTF-8 bytes, nested
// sequences are flattened recursively and the reader shapes the request
// builder accepts are materialized. Any other type yields no chunks.
func appendChunks(dst [][]byte, v interface{}) [][]byte {
	switch b := v.(type) {
	case nil:
	case []byte:
		if len(b) > 0 {
			dst = append(dst, b)
		}
	case string:
		if len(b) > 0 {
			dst = append(dst, []byte(b))
		}
	case [][]byte:
		for _, c := range b {
			dst = appendChunks(dst, c)
		}
	case []string:
		for _, c := range b {
			dst = appendChunks(dst, c)
		}
	case []interface{}:
		for _, c := range b {
			dst = appendChunks(dst, c)
		}
	case *bytes.Buffer:
		// taken by value so later writes to the buffer don't alias
		dst = appendChunks(dst, append([]byte(nil), b.Bytes()...))
	case *bytes.Reader:
		snapshot := *b
		buf := make([]byte, snapshot.Len())
		if n, _ := snapshot.Read(buf); n > 0 {
			dst = append(dst, buf[:n])
		}
	case *strings.Reader:
		snapshot := *b
		buf := make([]byte, snapshot.Len())
		if n, _ := snapshot.Read(buf); n > 0 {
			dst = append(dst, buf[:n])
		}
	}
	return dst
}

// chunksLen sums the byte length of chunks.
func chunksLen(chunks [][]byte) int64 {
	var n int64
	for _, c := range chunks {
		n += int64(len(c))
	}
	return n
}
