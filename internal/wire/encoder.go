// Package wire renders prepared requests into the byte chunks a
// connection writes, HTTP/1.1 framing only.
package wire

import (
	"bytes"
	"fmt"

	"github.com/ahttp-dev/ahttp/internal/model"
)

// Encode renders pr as the chunk sequence to enqueue on a connection: the
// request head first, then the body chunks as prepared. The head carries
// the fields in pr.Header order, which already has the computed fields
// merged after the user ones.
func Encode(pr *model.PreparedRequest) [][]byte {
	head := &bytes.Buffer{}
	fmt.Fprintf(head, "%s %s HTTP/1.1\r\n", pr.Method, pr.RequestURI())
	pr.Header.Each(func(name, value string) bool {
		fmt.Fprintf(head, "%s: %s\r\n", name, value)
		return true
	})
	head.WriteString("\r\n")

	out := make([][]byte, 0, len(pr.Chunks)+1)
	out = append(out, head.Bytes())
	out = append(out, pr.Chunks...)
	return out
}
