package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Level(t *testing.T) {
	l, err := NewLogger(false, WithLevel("warn"))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if l.logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.logger.Core().Enabled(zap.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestNewLogger_UnknownLevelKeepsDefault(t *testing.T) {
	l, err := NewLogger(false, WithLevel("loud"))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if !l.logger.Core().Enabled(zap.InfoLevel) {
		t.Error("production default should enable info")
	}
}

func TestLogger_ChildFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core)).Named("store").WithFields(zap.String("kind", "asset")).WithError(errors.New("boom"))

	l.Debug("rebuilt")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "store" || e.Message != "rebuilt" {
		t.Errorf("entry = %s %q", e.LoggerName, e.Message)
	}
	fields := e.ContextMap()
	if fields["kind"] != "asset" || fields["error"] != "boom" {
		t.Errorf("fields = %v", fields)
	}
}
