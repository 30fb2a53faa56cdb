package fractalview

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	Logger().Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("log output missing message: %q", buf.String())
	}
}

func TestSetLoggerNilRestoresDiscard(t *testing.T) {
	SetLogger(nil)

	log := Logger()
	if log == nil {
		t.Fatal("Logger must never return nil")
	}
	// Must not panic when logging to the discard logger.
	log.Info("dropped")
}

func TestViewCapturesLoggerAtConstruction(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	v := NewView(&stubCanvas{w: 100, h: 100})
	defer v.Close()

	SetLogger(nil)

	// The view keeps logging through the logger it was built with.
	v.HandleContextLoss()
	if !strings.Contains(buf.String(), "context lost") {
		t.Fatalf("view did not log through the captured logger: %q", buf.String())
	}
}
