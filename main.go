package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/freekieb7/quickhost/filesystem"
	"github.com/freekieb7/quickhost/http"
	"github.com/freekieb7/quickhost/mime"
	"github.com/freekieb7/quickhost/telemetry"
	"github.com/freekieb7/quickhost/tftp"
)

var errInvalidArgs = errors.New("invalid arguments")

type options struct {
	port     int
	workers  int
	timeout  time.Duration
	tftpAddr string
	otlp     bool
	verbose  bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options
	fs.IntVar(&opts.port, "p", http.DefaultPort, "port to listen on")
	fs.IntVar(&opts.workers, "w", 1, "number of connections served concurrently")
	fs.DurationVar(&opts.timeout, "t", http.DefaultTimeout, "read/write deadline per connection (0 disables)")
	fs.StringVar(&opts.tftpAddr, "tftp", "", "also serve the directory over TFTP on this address")
	fs.BoolVar(&opts.otlp, "otel", false, "export logs, metrics and traces over OTLP")
	fs.BoolVar(&opts.verbose, "v", false, "log requests and responses")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("%w: unexpected argument %q", errInvalidArgs, fs.Arg(0))
	}
	if opts.port < 1 || opts.port > 65535 {
		return opts, fmt.Errorf("%w: invalid port %d", errInvalidArgs, opts.port)
	}

	return opts, nil
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [-p port]\n", fs.Name())
		fs.PrintDefaults()
	}

	opts, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		// flag reports its own parse errors.
		if errors.Is(err, errInvalidArgs) {
			fmt.Fprintln(fs.Output(), err)
			fs.Usage()
		}
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, opts options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	tel, err := telemetry.Setup(ctx, telemetry.Config{OTLP: opts.otlp, Level: level})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()
	logger := tel.Logger

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	resolver := filesystem.NewLocalResolver(root, logger)
	registry := mime.NewRegistry()

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(opts.port))
	server, err := http.NewServer(http.Config{
		Addr:    addr,
		Workers: opts.workers,
		Timeout: opts.timeout,
	}, registry, resolver,
		http.WithLogger(logger),
		http.WithMeterProvider(tel.MeterProvider),
		http.WithTracerProvider(tel.TracerProvider))
	if err != nil {
		return err
	}

	listener, err := http.Listen(ctx, addr)
	if err != nil {
		return err
	}

	if opts.tftpAddr != "" {
		tftpServer, err := tftp.StartServer(opts.tftpAddr, registry, resolver, logger.With("service", "tftp"))
		if err != nil {
			listener.Close()
			return err
		}
		defer tftpServer.Shutdown()
	}

	logger.Info("serving", "port", opts.port, "root", root, "workers", opts.workers)
	return server.Serve(ctx, listener)
}
