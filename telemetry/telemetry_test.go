package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/freekieb7/quickhost/test"
)

func TestSetupConsole(t *testing.T) {
	var out bytes.Buffer
	tel, err := Setup(context.Background(), Config{Output: &out, Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	tel.Logger.Info("serving", "port", 8000)
	tel.Logger.Debug("hidden")

	logged := out.String()
	if !strings.Contains(logged, "msg=serving") || !strings.Contains(logged, "port=8000") {
		t.Errorf("unexpected log output %q", logged)
	}
	if strings.Contains(logged, "hidden") {
		t.Errorf("debug record written at info level: %q", logged)
	}

	// The providers are usable even though nothing is exported.
	counter, err := tel.MeterProvider.Meter("test").Int64Counter("test.count")
	test.NoError(t, err)
	counter.Add(context.Background(), 1)
	_, span := tel.TracerProvider.Tracer("test").Start(context.Background(), "test")
	span.End()

	test.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdownRunsOnce(t *testing.T) {
	calls := 0
	tel := &Telemetry{shutdownFuncs: []func(context.Context) error{
		func(context.Context) error { calls++; return nil },
	}}

	test.NoError(t, tel.Shutdown(context.Background()))
	test.NoError(t, tel.Shutdown(context.Background()))
	test.Equal(t, 1, calls)
}
