package service

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestTailLinesLastN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.log")
	var b strings.Builder
	for i := 1; i <= 100; i++ {
		b.WriteString("line ")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	lines, err := TailLines(path, 5)
	if err != nil {
		t.Fatalf("TailLines: %v", err)
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[0] != "line 96" || lines[4] != "line 100" {
		t.Fatalf("wrong tail window: %v", lines)
	}
}

func TestTailLinesShortFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.log")
	if err := os.WriteFile(path, []byte("only\ntwo\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	lines, err := TailLines(path, 40)
	if err != nil {
		t.Fatalf("TailLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "only" || lines[1] != "two" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestTailLinesEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.log")
	if _, err := TailLines(path, 10); err == nil {
		t.Fatalf("missing file must error so the command can hint at it")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("seed empty: %v", err)
	}
	lines, err := TailLines(path, 10)
	if err != nil {
		t.Fatalf("TailLines on empty file: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestTailLinesSeeksLargeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Enough to force the seek path past the chunk boundary.
	filler := strings.Repeat("x", 120) + "\n"
	for written := 0; written < tailChunk+4096; written += len(filler) {
		if _, err := f.WriteString(filler); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	if _, err := f.WriteString("the very last line\n"); err != nil {
		t.Fatalf("write last: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	lines, err := TailLines(path, 3)
	if err != nil {
		t.Fatalf("TailLines: %v", err)
	}
	if len(lines) != 3 || lines[2] != "the very last line" {
		t.Fatalf("unexpected tail of large file: %v", lines)
	}
}

func TestMergeEnvOverridesAndExpands(t *testing.T) {
	t.Setenv("ROOST_BASE", "/srv/roost")
	env := MergeEnv([]string{"ROOST_DATA=${ROOST_BASE}/data", "PATH=/custom/bin"})
	var data, path string
	for _, kv := range env {
		if strings.HasPrefix(kv, "ROOST_DATA=") {
			data = strings.TrimPrefix(kv, "ROOST_DATA=")
		}
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	if data != "/srv/roost/data" {
		t.Fatalf("expansion failed: %q", data)
	}
	if path != "/custom/bin" {
		t.Fatalf("override failed: %q", path)
	}
}
