package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/freekieb7/quickhost/filesystem"
	"github.com/freekieb7/quickhost/mime"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/freekieb7/quickhost/http"

const (
	DefaultPort    = 8000
	DefaultTimeout = 30 * time.Second

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// FileResolver reads a requested file into memory. It reports
// filesystem.ErrFileNotFound when the file cannot be opened.
type FileResolver interface {
	Resolve(path string) (filesystem.Artifact, error)
}

type Config struct {
	Addr string
	// Workers <= 1 serves connections one at a time on the accept loop.
	Workers int
	// Timeout is the read/write deadline of a connection. Zero disables it.
	Timeout time.Duration
}

type Server struct {
	Config   Config
	Registry mime.Registry
	Resolver FileResolver

	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer       trace.Tracer
	requests     metric.Int64Counter
	responseSize metric.Int64Counter
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Server) {
		s.meterProvider = mp
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

func NewServer(cfg Config, registry mime.Registry, resolver FileResolver, opts ...Option) (*Server, error) {
	if resolver == nil {
		return nil, errors.New("http: missing file resolver")
	}

	s := &Server{
		Config:   cfg,
		Registry: registry,
		Resolver: resolver,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.meterProvider == nil {
		s.meterProvider = otel.GetMeterProvider()
	}
	if s.tracerProvider == nil {
		s.tracerProvider = otel.GetTracerProvider()
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	s.requests, err = meter.Int64Counter("quickhost.requests",
		metric.WithDescription("The number of handled connections by outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	s.responseSize, err = meter.Int64Counter("quickhost.response.size",
		metric.WithDescription("The number of bytes written to clients"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Listen binds a TCP listener with address and port reuse enabled.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := listenConfig()
	listener, err := lc.Listen(ctx, "tcp4", addr)
	if err != nil {
		var sysErr *os.SyscallError
		if errors.As(err, &sysErr) {
			switch sysErr.Syscall {
			case "bind":
				return nil, fmt.Errorf("%w: %s: %v", ErrBind, addr, err)
			case "socket", "setsockopt":
				return nil, fmt.Errorf("%w: %s: %v", ErrSocket, addr, err)
			}
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrListen, addr, err)
	}

	return listener, nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := Listen(ctx, s.Config.Addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections until ctx is cancelled. Each connection is
// closed after it has been handled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	var pool *WorkerPool
	if s.Config.Workers > 1 {
		pool = NewWorkerPool(s.Config.Workers, func(conn net.Conn) {
			s.handle(ctx, conn)
		})
		defer pool.Close()
	}

	var acceptDelay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if acceptDelay == 0 {
				acceptDelay = minAcceptDelay
			} else {
				acceptDelay = min(2*acceptDelay, maxAcceptDelay)
			}
			s.logger.Error("accept failed", "retry_in", acceptDelay, "error", fmt.Errorf("%w: %v", ErrAccept, err))

			timer := time.NewTimer(acceptDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
			continue
		}
		acceptDelay = 0

		s.logger.Debug("client connected", "remote", conn.RemoteAddr().String())

		if pool != nil {
			pool.Dispatch(conn)
			continue
		}
		s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug("closing connection error", "error", err)
		}
	}()

	s.ServeConn(ctx, conn)
}

// ServeConn handles a single request on conn and returns the number of bytes
// written. The caller owns conn and must close it.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) (int, error) {
	remote := conn.RemoteAddr().String()
	connID := uuid.NewString()
	logger := s.logger.With("conn", connID, "remote", remote)

	ctx, span := s.tracer.Start(ctx, "quickhost.serve",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("client.address", remote),
			attribute.String("quickhost.conn.id", connID)))
	defer span.End()

	n, err := s.serve(ctx, conn, logger)

	outcome := Outcome(err)
	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if n > 0 {
		s.responseSize.Add(ctx, int64(n))
	}
	span.SetAttributes(
		attribute.String("quickhost.outcome", outcome),
		attribute.Int("http.response.size", n))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.ErrorContext(ctx, "request failed", "outcome", outcome, "sent", n, "error", err)
		return n, err
	}

	logger.InfoContext(ctx, "request served", "sent", n)
	return n, nil
}

func (s *Server) serve(ctx context.Context, conn net.Conn, logger *slog.Logger) (int, error) {
	if s.Config.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.Config.Timeout)); err != nil {
			logger.DebugContext(ctx, "set deadline error", "error", err)
		}
	}

	buf := make([]byte, MaxRequestSize)
	n, err := conn.Read(buf[:MaxRequestSize-1])
	if n == 0 {
		if err == nil || err == io.EOF {
			return 0, ErrEmptyRequest
		}
		return 0, fmt.Errorf("%w: %v", ErrEmptyRequest, err)
	}
	raw := buf[:n]
	logger.DebugContext(ctx, "request received", "bytes", n, "request", string(raw))

	req, err := ParseRequest(raw)
	if err != nil {
		return 0, err
	}

	contentType, err := s.Registry.Lookup(req.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, req.Path)
	}

	artifact, err := s.Resolver.Resolve(req.Path)
	if err != nil {
		if errors.Is(err, filesystem.ErrFileNotFound) {
			sent, sendErr := write(conn, NotFoundResponse)
			return sent, errors.Join(err, sendErr)
		}
		return 0, err
	}
	logger.DebugContext(ctx, "found file", "path", req.Path, "bytes", artifact.Size, "type", contentType)

	resp := BuildResponse(artifact, contentType)
	logger.DebugContext(ctx, "response header", "bytes", resp.TotalBytes, "header", string(resp.Header()))

	return write(conn, resp.Content)
}

func write(w io.Writer, msg []byte) (int, error) {
	n, err := w.Write(msg)
	if err != nil {
		return n, fmt.Errorf("%w: wrote %d of %d bytes: %v", ErrSend, n, len(msg), err)
	}
	if n != len(msg) {
		return n, fmt.Errorf("%w: wrote %d of %d bytes", ErrSend, n, len(msg))
	}
	return n, nil
}

// Outcome names the result of a handled connection for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "served"
	case errors.Is(err, ErrSend):
		return "send_error"
	case errors.Is(err, ErrEmptyRequest):
		return "empty_request"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrUnsupportedMethod):
		return "unsupported_method"
	case errors.Is(err, mime.ErrUnknownExtension):
		return "unknown_extension"
	case errors.Is(err, filesystem.ErrFileNotFound):
		return "not_found"
	case errors.Is(err, filesystem.ErrRead):
		return "read_error"
	default:
		return "error"
	}
}
