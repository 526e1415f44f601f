package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_DiscardByDefault(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := New(Options{Stderr: &stderr})
	defer closer.Close()

	logger.Info("hidden")
	logger.Debug("hidden")
	if stderr.Len() != 0 {
		t.Errorf("expected no output, got %q", stderr.String())
	}
}

func TestNew_Verbose(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer := New(Options{Verbose: true, Stderr: &stderr})
	defer closer.Close()

	logger.Debug("request sent", "status", 403)
	out := stderr.String()
	if !strings.Contains(out, "request sent") || !strings.Contains(out, "status=403") {
		t.Errorf("expected debug record on stderr, got %q", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wafprobe.log")
	logger, closer := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})

	logger.Debug("not written")
	logger.Info("run finished", "results", 22)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record at info level, got %d: %q", len(lines), data)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON record: %v", err)
	}
	if rec["msg"] != "run finished" || rec["results"].(float64) != 22 {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_FileAndVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wafprobe.log")
	var stderr bytes.Buffer
	logger, closer := New(Options{File: path, Verbose: true, Stderr: &stderr})

	logger.With("component", "runner").Debug("test executed")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range map[string]string{"file": string(data), "stderr": stderr.String()} {
		if !strings.Contains(out, "test executed") || !strings.Contains(out, "runner") {
			t.Errorf("%s missing record: %q", name, out)
		}
	}
}
