package model

import "strings"

// Headers is an insertion-ordered set of header fields. Order is preserved
// because it becomes wire order when the request is encoded. Names are
// matched case-insensitively and each name holds a single value; setting an
// existing name replaces the value in place.
type Headers struct {
	fields []Field
}

// Field is one header line.
type Field struct {
	Name  string
	Value string
}

// NewHeaders builds Headers from name/value pairs, in order. A trailing
// unpaired name is ignored.
func NewHeaders(pairs ...string) Headers {
	var h Headers
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// Set stores value under name. An existing field keeps its position; a new
// one is appended.
func (h *Headers) Set(name, value string) {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			h.fields[i].Value = value
			return
		}
	}
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Get returns the value stored under name, or "".
func (h *Headers) Get(name string) string {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			return h.fields[i].Value
		}
	}
	return ""
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			return true
		}
	}
	return false
}

// Del removes name if present.
func (h *Headers) Del(name string) {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
	}
}

// Len returns the number of fields.
func (h *Headers) Len() int { return len(h.fields) }

// Each calls fn for every field in insertion order until fn returns false.
func (h *Headers) Each(fn func(name, value string) bool) {
	for i := range h.fields {
		if !fn(h.fields[i].Name, h.fields[i].Value) {
			return
		}
	}
}

// Clone returns an independent copy.
func (h *Headers) Clone() Headers {
	if len(h.fields) == 0 {
		return Headers{}
	}
	fields := make([]Field, len(h.fields))
	copy(fields, h.fields)
	return Headers{fields: fields}
}
