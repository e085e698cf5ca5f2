package tftp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/freekieb7/quickhost/http"
	"github.com/freekieb7/quickhost/mime"
	tftp "github.com/pin/tftp/v3"
)

const DefaultTimeout = 5 * time.Second

var (
	ErrReadOnly = errors.New("tftp: server is read-only")
	ErrListen   = errors.New("tftp: listen failed")
)

// ReadHandler serves a read request from the same document root as the HTTP
// server. The default document is served for an empty name.
func ReadHandler(registry mime.Registry, resolver http.FileResolver, logger *slog.Logger) func(string, io.ReaderFrom) error {
	return func(filename string, rf io.ReaderFrom) error {
		name := strings.TrimPrefix(strings.TrimSpace(filename), "/")
		if name == "" {
			name = http.DefaultDocument
		}

		artifact, err := resolver.Resolve(name)
		if err != nil {
			logger.Error("tftp read failed", "file", name, "error", err)
			return err
		}

		if transfer, ok := rf.(tftp.OutgoingTransfer); ok {
			transfer.SetSize(artifact.Size)
		}

		contentType, err := registry.Lookup(name)
		if err != nil {
			contentType = "unknown"
		}

		n, err := rf.ReadFrom(bytes.NewReader(artifact.Content))
		if err != nil {
			logger.Error("tftp transfer failed", "file", name, "sent", n, "error", err)
			return err
		}

		logger.Info("tftp file sent", "file", name, "type", contentType, "sent", n)
		return nil
	}
}

func writeHandler(filename string, wt io.WriterTo) error {
	return ErrReadOnly
}

func NewServer(registry mime.Registry, resolver http.FileResolver, logger *slog.Logger) *tftp.Server {
	srv := tftp.NewServer(ReadHandler(registry, resolver, logger), writeHandler)
	srv.SetTimeout(DefaultTimeout)
	return srv
}

// StartServer binds addr and serves TFTP read requests in the background.
// Bind failures are returned to the caller.
func StartServer(addr string, registry mime.Registry, resolver http.FileResolver, logger *slog.Logger) (*tftp.Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: missing listen address", ErrListen)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListen, addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListen, addr, err)
	}

	srv := NewServer(registry, resolver, logger)

	go func() {
		logger.Info("tftp server listening", "addr", conn.LocalAddr().String())
		if err := srv.Serve(conn); err != nil {
			logger.Error("tftp server error", "error", err)
		}
	}()

	return srv, nil
}
