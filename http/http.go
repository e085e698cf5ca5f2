package http

import "errors"

const (
	ServerName      = "quickhost"
	DefaultDocument = "index.html"
	MethodGet       = "GET"

	// MaxRequestSize bounds the single read of a request. One byte is kept
	// back, so at most MaxRequestSize-1 bytes are considered.
	MaxRequestSize = 1024
)

var (
	ErrEmptyRequest      = errors.New("http: unable to read request")
	ErrMalformedRequest  = errors.New("http: malformed request")
	ErrUnsupportedMethod = errors.New("http: unsupported method")
	ErrSend              = errors.New("http: message failed to send")

	ErrSocket = errors.New("http: socket setup failed")
	ErrBind   = errors.New("http: socket bind failed")
	ErrListen = errors.New("http: listen failed")
	ErrAccept = errors.New("http: failed to accept connection")
)

var (
	statusLineOK        = []byte("HTTP/1.1 200 OK\r\n")
	headerServer        = []byte("Server: " + ServerName + "\r\n")
	headerContentLength = []byte("Content-Length: ")
	headerContentType   = []byte("Content-Type: ")
	crlf                = []byte("\r\n")

	// NotFoundResponse is sent, bare, when the requested file cannot be opened.
	NotFoundResponse = []byte("HTTP/1.1 404 Not Found\r\n")
)
