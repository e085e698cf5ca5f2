package http

import (
	"strconv"

	"github.com/freekieb7/quickhost/filesystem"
)

// Response is a complete 200 message: header block followed by the file.
type Response struct {
	HeaderBytes int
	TotalBytes  int
	Content     []byte
}

func (r Response) Header() []byte {
	return r.Content[:r.HeaderBytes]
}

func (r Response) Body() []byte {
	return r.Content[r.HeaderBytes:]
}

// AppendHeader appends the 200 status line and headers, including the blank
// line that ends the header block, to dst.
func AppendHeader(dst []byte, size int64, contentType string) []byte {
	dst = append(dst, statusLineOK...)
	dst = append(dst, headerServer...)
	dst = append(dst, headerContentLength...)
	dst = strconv.AppendInt(dst, size, 10)
	dst = append(dst, crlf...)
	dst = append(dst, headerContentType...)
	dst = append(dst, contentType...)
	dst = append(dst, crlf...)
	dst = append(dst, crlf...)
	return dst
}

func BuildResponse(artifact filesystem.Artifact, contentType string) Response {
	header := AppendHeader(make([]byte, 0, 96+len(contentType)), artifact.Size, contentType)

	content := make([]byte, len(header)+int(artifact.Size))
	n := copy(content, header)
	copy(content[n:], artifact.Content)

	return Response{
		HeaderBytes: n,
		TotalBytes:  len(content),
		Content:     content,
	}
}
