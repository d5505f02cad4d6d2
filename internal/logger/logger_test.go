package logger

import "testing"

func TestLogDefaultsToNop(t *testing.T) {
	if Log == nil {
		t.Fatal("Log should never be nil")
	}
	Log.Info("discarded")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	if err := Init("loud"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
	if Log != prev {
		t.Error("Log should be untouched after a failed Init")
	}
}

func TestInitDebug(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	if err := Init("debug"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !Log.Core().Enabled(-1) {
		t.Error("Expected debug level to be enabled")
	}
}
