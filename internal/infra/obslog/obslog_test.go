package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_CreatesAllFiveSinks(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	for _, name := range sinkNames {
		path := filepath.Join(dir, name+".log")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("sink %q: file not created: %v", name, err)
		}
		if l.Sink(name) == nil {
			t.Errorf("Sink(%q) = nil", name)
		}
	}
}

func TestLoggers_WritesPlainLines(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	l.General().Printf("controller started")
	l.Err().Printf("boom: %v", "disk full")
	l.Close()

	generalBytes, err := os.ReadFile(filepath.Join(dir, "general.log"))
	if err != nil {
		t.Fatalf("read general.log: %v", err)
	}
	if !strings.Contains(string(generalBytes), "controller started") {
		t.Errorf("general.log missing expected message, got %q", generalBytes)
	}

	errBytes, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("read error.log: %v", err)
	}
	if !strings.Contains(string(errBytes), "boom: disk full") {
		t.Errorf("error.log missing expected message, got %q", errBytes)
	}
}

func TestSink_UnknownNameReturnsNil(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	if got := l.Sink("does-not-exist"); got != nil {
		t.Errorf("Sink(unknown) = %v, want nil", got)
	}
}
