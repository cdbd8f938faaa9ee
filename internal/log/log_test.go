package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitWithFileWritesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cornealfit.log")

	if err := InitWithFile(false, path); err != nil {
		t.Fatalf("InitWithFile: %v", err)
	}
	Infow("fit completed", "vendor", "medmont")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain an entry")
	}
}

func TestGetSugaredLoggerFallback(t *testing.T) {
	log = nil
	baseLogger = nil

	if GetSugaredLogger() == nil {
		t.Fatal("expected fallback logger")
	}
	if GetZapLogger() == nil {
		t.Fatal("expected fallback base logger")
	}
}
