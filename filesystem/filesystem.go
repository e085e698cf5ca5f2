package filesystem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

var (
	ErrFileNotFound = errors.New("filesystem: file not found")
	ErrRead         = errors.New("filesystem: unable to read file")
)

// Artifact is a file read fully into memory.
type Artifact struct {
	Size    int64
	Content []byte
}

// Resolver reads files relative to the root of a billy filesystem.
type Resolver struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

func NewResolver(fs billy.Filesystem, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{fs: fs, logger: logger}
}

// NewLocalResolver roots the resolver at dir on the local disk. Paths
// escaping dir are rejected by the chroot and reported as not found.
func NewLocalResolver(dir string, logger *slog.Logger) *Resolver {
	return NewResolver(osfs.New(dir), logger)
}

func (r *Resolver) Root() string {
	return r.fs.Root()
}

func (r *Resolver) Resolve(path string) (Artifact, error) {
	file, err := r.fs.Open(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.logger.Error("closing file error", "path", path, "error", closeErr)
		}
	}()

	info, err := r.fs.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: stat: %v", ErrRead, path, err)
	}
	if info.IsDir() {
		return Artifact{}, fmt.Errorf("%w: %s: is a directory", ErrRead, path)
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: size: %v", ErrRead, path, err)
	}
	if size <= 0 || uint64(size) > math.MaxInt {
		return Artifact{}, fmt.Errorf("%w: %s: size is %d", ErrRead, path, size)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: rewind: %v", ErrRead, path, err)
	}

	content := make([]byte, size)
	if _, err := io.ReadFull(file, content); err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	return Artifact{Size: size, Content: content}, nil
}
