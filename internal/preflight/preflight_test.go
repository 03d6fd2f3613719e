package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipfeed/internal/config"
	"clipfeed/internal/preflight"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Corpus directory", dir, false)
	if !result.Passed {
		t.Fatalf("existing directory failed: %+v", result)
	}
	if !strings.Contains(result.Detail, "read ok") {
		t.Fatalf("detail = %q, want read-only label", result.Detail)
	}

	result = preflight.CheckDirectoryAccess("State directory", dir, true)
	if !result.Passed || !strings.Contains(result.Detail, "read/write ok") {
		t.Fatalf("writable directory result: %+v", result)
	}

	missing := filepath.Join(dir, "absent")
	result = preflight.CheckDirectoryAccess("Corpus directory", missing, false)
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("missing directory result: %+v", result)
	}

	file := writeStub(t, dir, "plain-file", "data")
	result = preflight.CheckDirectoryAccess("Corpus directory", file, false)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("file-as-directory result: %+v", result)
	}
}

func TestRunAllCoversConfiguredPaths(t *testing.T) {
	corpusDir := t.TempDir()
	stateDir := t.TempDir()
	cfg := &config.Config{
		Paths: config.Paths{
			CorpusDir: corpusDir,
			StateDir:  stateDir,
			LogDir:    filepath.Join(stateDir, "absent-logs"),
		},
	}

	results := preflight.RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("RunAll returned %d results, want 3", len(results))
	}
	failed := preflight.Failed(results)
	if len(failed) != 1 {
		t.Fatalf("Failed returned %d results, want 1: %+v", len(failed), results)
	}
	if failed[0].Name != "Log directory" {
		t.Fatalf("failed check = %q, want log directory", failed[0].Name)
	}

	if got := preflight.RunAll(nil); got != nil {
		t.Fatalf("RunAll(nil) = %v, want nil", got)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := writeStub(t, binDir, "ffmpeg", "#!/bin/sh\nexit 0\n")

	cfg := &config.Config{
		Decode: config.Decode{
			FFmpegBinary:  ffmpeg,
			FFprobeBinary: "clearly-not-present-ffprobe",
		},
	}

	statuses := preflight.CheckSystemDeps(cfg)
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("ffmpeg stub reported unavailable: %+v", statuses[0])
	}
	if statuses[1].Available {
		t.Fatalf("missing ffprobe reported available: %+v", statuses[1])
	}
}

func TestBinaryVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := writeStub(t, binDir, "ffmpeg",
		"#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) 2000-2024'\necho 'built with gcc'\n")

	got := preflight.BinaryVersion(context.Background(), stub)
	if !strings.HasPrefix(got, "ffmpeg version 7.1") {
		t.Fatalf("BinaryVersion = %q", got)
	}

	if got := preflight.BinaryVersion(context.Background(), "clearly-not-present-binary"); got != "" {
		t.Fatalf("BinaryVersion for missing binary = %q, want empty", got)
	}
	if got := preflight.BinaryVersion(context.Background(), "  "); got != "" {
		t.Fatalf("BinaryVersion for blank binary = %q, want empty", got)
	}
}
