package wire

import (
	"bytes"
	"net/url"
	"reflect"
	"testing"

	"github.com/ahttp-dev/ahttp/internal/model"
)

func encode(t *testing.T, req *model.Request, ua string) []byte {
	t.Helper()
	pr, err := req.Prepare(ua)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.Join(Encode(pr), nil)
}

func TestEncodeGet(t *testing.T) {
	got := encode(t, &model.Request{
		Method: "GET",
		URL:    "http://example.com/path?x=1",
	}, "ahttp/1.0")
	want := "GET /path?x=1 HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"User-Agent: ahttp/1.0\r\n" +
		"\r\n"
	if string(got) != want {
		t.Errorf("wire image:\n%q\nwant:\n%q", got, want)
	}
}

func TestEncodePostBody(t *testing.T) {
	got := encode(t, &model.Request{
		Method: "POST",
		URL:    "http://example.com/submit",
		Body:   "hello",
	}, "ahttp/1.0")
	want := "POST /submit HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"User-Agent: ahttp/1.0\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"
	if string(got) != want {
		t.Errorf("wire image:\n%q\nwant:\n%q", got, want)
	}
}

func TestEncodeUserHeaderOrder(t *testing.T) {
	got := encode(t, &model.Request{
		Method: "GET",
		URL:    "http://example.com/",
		Header: model.NewHeaders(
			"Accept", "application/json",
			"X-Custom", "1",
		),
	}, "ua")
	want := "GET / HTTP/1.1\r\n" +
		"Accept: application/json\r\n" +
		"X-Custom: 1\r\n" +
		"Host: example.com\r\n" +
		"User-Agent: ua\r\n" +
		"\r\n"
	if string(got) != want {
		t.Errorf("wire image:\n%q\nwant:\n%q", got, want)
	}
}

func TestEncodeBasicAuth(t *testing.T) {
	got := encode(t, &model.Request{
		Method: "GET",
		URL:    "http://example.com/",
		Auth:   &model.BasicAuth{Username: "user", Password: "pass"},
	}, "")
	if !bytes.Contains(got, []byte("Authorization: Basic dXNlcjpwYXNz\r\n")) {
		t.Errorf("wire image missing basic credentials:\n%q", got)
	}
}

func TestEncodeHeadChunkSeparate(t *testing.T) {
	pr, err := (&model.Request{
		Method: "POST",
		URL:    "http://example.com/",
		Body:   [][]byte{[]byte("ab"), []byte("cd")},
	}).Prepare("")
	if err != nil {
		t.Fatal(err)
	}
	chunks := Encode(pr)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want head + 2 body", len(chunks))
	}
	if !bytes.HasSuffix(chunks[0], []byte("\r\n\r\n")) {
		t.Error("head chunk not terminated by blank line")
	}
	if string(chunks[1]) != "ab" || string(chunks[2]) != "cd" {
		t.Error("body chunks reordered or merged")
	}
}

func TestEncodeFormRoundTrip(t *testing.T) {
	in := url.Values{
		"name":  {"alice"},
		"tags":  {"a b", "c&d"},
		"empty": {""},
	}
	body := EncodeForm(in)
	out, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}
