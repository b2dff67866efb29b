package model

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// BasicAuth carries credentials for an Authorization: Basic header.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes one HTTP exchange to perform. It is assembled by the
// verb layer and must not be mutated after Prepare.
type Request struct {
	Method string
	URL    string
	Header Headers
	Body   interface{}
	Auth   *BasicAuth
}

// PreparedRequest is the immutable descriptor the engine works with: parsed
// target, merged headers in wire order, and the body materialized into
// chunks.
type PreparedRequest struct {
	*Request

	U          *url.URL
	Header     Headers
	HeaderHost string

	ContentLength int64
	Chunks        [][]byte
}

// Prepare resolves the URL, materializes the body into chunks and merges the
// computed headers (Authorization, Host, User-Agent, Content-Length) after
// the user-supplied ones. User values win on collision: a computed header is
// only appended when the user did not already supply that name.
func (r *Request) Prepare(userAgent string) (*PreparedRequest, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ahttp: unsupported scheme %q", u.Scheme)
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("ahttp: invalid port %q in %q", p, r.URL)
		}
	}

	headers := r.Header.Clone()
	host := u.Host
	cl := int64(-1)
	// user defined headers has higher priority
	if v := headers.Get("Host"); v != "" {
		host = v
		headers.Del("Host")
	}
	if v := headers.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cl = n
		}
		headers.Del("Content-Length")
	}
	if host == "" {
		return nil, fmt.Errorf("ahttp: empty host in %q", r.URL)
	}
	if p, err := httpguts.PunycodeHostPort(host); err == nil {
		host = p
	}
	if !httpguts.ValidHostHeader(host) {
		return nil, fmt.Errorf("ahttp: invalid Host header %q", host)
	}
	if err := validateHeaders(&headers); err != nil {
		return nil, err
	}

	pr := &PreparedRequest{
		Request: r, U: u,
		Header: headers, HeaderHost: host,
		ContentLength: cl,
	}
	pr.Chunks = appendChunks(nil, r.Body)
	if n := chunksLen(pr.Chunks); n > 0 {
		if cl != -1 && cl != n {
			return nil, fmt.Errorf("ahttp: conflicting value between body size and content-length request header")
		}
		pr.ContentLength = n
	}
	pr.mergeComputed(userAgent)
	return pr, nil
}

// mergeComputed appends the computed headers after the user ones, skipping
// any name the user already supplied.
func (pr *PreparedRequest) mergeComputed(userAgent string) {
	if pr.Auth != nil && !pr.Header.Has("Authorization") {
		cred := pr.Auth.Username + ":" + pr.Auth.Password
		pr.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cred)))
	}
	// Host was hoisted out of the user headers above, so Set appends here
	pr.Header.Set("Host", pr.HeaderHost)
	if !pr.Header.Has("User-Agent") && userAgent != "" {
		pr.Header.Set("User-Agent", userAgent)
	}
	// >= 0 keeps an explicit user Content-Length, zero included
	if pr.ContentLength >= 0 && !pr.Header.Has("Content-Length") {
		pr.Header.Set("Content-Length", strconv.FormatInt(pr.ContentLength, 10))
	}
}

// RequestURI returns the path?query form that goes on the request line. The
// fragment never appears on the wire.
func (pr *PreparedRequest) RequestURI() string {
	uri := pr.U.RequestURI()
	if uri == "" {
		return "/"
	}
	return uri
}

func validateHeaders(h *Headers) error {
	var bad error
	h.Each(func(name, value string) bool {
		if !httpguts.ValidHeaderFieldName(name) {
			bad = fmt.Errorf("ahttp: invalid header field name %q", name)
			return false
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			bad = fmt.Errorf("ahttp: invalid header field value for %q", name)
			return false
		}
		return true
	})
	return bad
}

// Port returns the target port, defaulting by scheme when the URL does not
// carry one.
func (pr *PreparedRequest) Port() string {
	if p := pr.U.Port(); p != "" {
		return p
	}
	return schemePorts[pr.U.Scheme]
}

var schemePorts = map[string]string{
	"http": "80", "https": "443",
}

// TLS reports whether the exchange needs a TLS session.
func (pr *PreparedRequest) TLS() bool { return pr.U.Scheme == "https" }

// Hostname returns the target host without the port.
func (pr *PreparedRequest) Hostname() string { return pr.U.Hostname() }
