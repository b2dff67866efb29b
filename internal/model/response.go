package model

// Response holds whatever the connection accumulated for a request once its
// framer declared the exchange complete. Raw is the unparsed byte image,
// status line and headers included.
type Response struct {
	Request *Request

	Raw []byte
}
