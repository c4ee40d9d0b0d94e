package debug

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	Disable()
	Log("engine", "dropped %d", 3)
	if Enabled() {
		t.Fatal("enabled after Disable")
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 7; i++ {
		LogEvery(3, "driver", "late by %d buffers", i)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if want, got := 2, len(lines); want != got {
		t.Fatalf("lines: want %d, got %d: %q", want, got, buf.String())
	}
	if !strings.Contains(lines[0], "driver") || !strings.Contains(lines[0], "late by 2 buffers (every 3, count=3)") {
		t.Fatalf("first line: %q", lines[0])
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatal(err)
	}
	Log("remote", "listening on %s", "localhost:7777")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "listening on localhost:7777") {
		t.Fatalf("log file: %q", data)
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	w := Writer("remote")
	fmt.Fprintln(w, "level=INFO msg=hello")
	if got := buf.String(); !strings.Contains(got, "remote") || !strings.HasSuffix(got, "msg=hello\n") {
		t.Fatalf("got %q", got)
	}
}

func TestEnableBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	err := Enable(filepath.Join(file, "sub", "debug.log"))
	if err == nil || !strings.HasPrefix(err.Error(), "debug log dir") {
		t.Fatalf("want a debug log dir error, got %v", err)
	}
	if Enabled() {
		t.Fatal("enabled after a failed Enable")
	}
}
