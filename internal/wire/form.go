package wire

import "net/url"

// FormContentType is the Content-Type for form-encoded bodies.
const FormContentType = "application/x-www-form-urlencoded"

// EncodeForm renders values as a form-encoded body. Keys are emitted in
// sorted order with their values percent-escaped, so the output parses
// back with url.ParseQuery.
func EncodeForm(values url.Values) []byte {
	return []byte(values.Encode())
}
