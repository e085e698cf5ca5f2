package http

import (
	"bytes"
	"fmt"
)

type Request struct {
	Method string
	Path   string
}

// Method returns the leading token of the request line.
func Method(raw []byte) string {
	if end := bytes.IndexAny(raw, " \r\n"); end >= 0 {
		return string(raw[:end])
	}
	return string(raw)
}

// ParsePath extracts the path token following the first '/', up to the next
// space or carriage return. An empty token names the default document.
func ParsePath(raw []byte) (string, error) {
	start := bytes.IndexByte(raw, '/')
	if start < 0 {
		return "", fmt.Errorf("%w: no filepath provided", ErrMalformedRequest)
	}

	rest := raw[start+1:]
	end := bytes.IndexAny(rest, " \r")
	if end < 0 {
		return "", fmt.Errorf("%w: improper filename provided", ErrMalformedRequest)
	}
	if end == 0 {
		return DefaultDocument, nil
	}

	return string(rest[:end]), nil
}

func ParseRequest(raw []byte) (Request, error) {
	method := Method(raw)
	if method != MethodGet {
		return Request{Method: method}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	path, err := ParsePath(raw)
	if err != nil {
		return Request{Method: method}, err
	}

	return Request{Method: method, Path: path}, nil
}
