package mime

import (
	"errors"
	"strings"
)

var ErrUnknownExtension = errors.New("mime: unknown file extension")

type Entry struct {
	Extension   string
	ContentType string
}

// DefaultEntries is the table served by quickhost. Order matters: Lookup
// returns the first entry whose extension is a suffix of the path.
var DefaultEntries = []Entry{
	{Extension: ".avi", ContentType: "video/x-msvideo"},
	{Extension: ".bin", ContentType: "application/octet-stream"},
	{Extension: ".bmp", ContentType: "image/bmp"},
	{Extension: ".css", ContentType: "text/css"},
	{Extension: ".gif", ContentType: "image/gif"},
	{Extension: ".html", ContentType: "text/html"},
	{Extension: ".ico", ContentType: "image/vnd.microsoft.icon"},
	{Extension: ".jpg", ContentType: "image/jpeg"},
	{Extension: ".jpeg", ContentType: "image/jpeg"},
	{Extension: ".js", ContentType: "text/javascript"},
	{Extension: ".json", ContentType: "application/json"},
	{Extension: ".mpeg", ContentType: "video/mpeg"},
	{Extension: ".png", ContentType: "image/png"},
}

// Registry is an immutable extension to content type table. The zero value
// matches nothing.
type Registry struct {
	entries []Entry
}

func NewRegistry(entries ...Entry) Registry {
	if len(entries) == 0 {
		entries = DefaultEntries
	}

	return Registry{entries: append([]Entry(nil), entries...)}
}

func (r Registry) Lookup(path string) (string, error) {
	for _, entry := range r.entries {
		if entry.Extension == "" {
			continue
		}
		if strings.HasSuffix(path, entry.Extension) {
			return entry.ContentType, nil
		}
	}

	return "", ErrUnknownExtension
}

func (r Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the table in lookup order.
func (r Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}
