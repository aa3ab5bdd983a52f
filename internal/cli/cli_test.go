package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/signature"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"photo.png":     pngBytes,
		"renamed.jpg":   pngBytes,
		"notes.txt":     []byte("hello world\n"),
		"sub/inner.exe": []byte("MZ\x90\x00\x03\x00"),
	}
	for name, data := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

type jsonDoc struct {
	Files []struct {
		Path           string `json:"path"`
		Name           string `json:"name"`
		ExtensionMatch *bool  `json:"extension_match"`
		Error          string `json:"error"`
		Identification *struct {
			Type   string `json:"type"`
			Method string `json:"method"`
		} `json:"identification"`
	} `json:"files"`
	Summary struct {
		Total      int `json:"total"`
		Mismatched int `json:"mismatched"`
	} `json:"summary"`
}

func TestIdentify_Text(t *testing.T) {
	dir := writeFixtures(t)

	out, _, err := execute(t, "identify", "--no-color", dir)
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}

	if got := strings.Count(out, "FILE ANALYSIS RESULTS"); got != 3 {
		t.Errorf("expected 3 reports without -r, got %d\n%s", got, out)
	}
	for _, want := range []string{
		"File: photo.png",
		"Extension matches file content",
		"WARNING: Extension doesn't match file content!",
		"Analyzed 3 file(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("--no-color output contains ANSI sequences")
	}
}

func TestIdentify_JSON(t *testing.T) {
	dir := writeFixtures(t)

	out, _, err := execute(t, "identify", "-o", "json", "-r", "--include", "*.png,*.jpg,*.exe", dir)
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}

	var doc jsonDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(doc.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(doc.Files))
	}

	byName := map[string]string{}
	for _, f := range doc.Files {
		byName[f.Name] = f.Identification.Type
	}
	want := map[string]string{"photo.png": "PNG", "renamed.jpg": "PNG", "inner.exe": "EXE"}
	for name, typ := range want {
		if byName[name] != typ {
			t.Errorf("%s identified as %q, want %q", name, byName[name], typ)
		}
	}
	if doc.Summary.Total != 3 || doc.Summary.Mismatched != 1 {
		t.Errorf("summary = %+v", doc.Summary)
	}
}

func TestIdentify_Progress(t *testing.T) {
	dir := writeFixtures(t)

	// The bar goes to stderr and must not disturb machine-readable output
	out, _, err := execute(t, "identify", "--progress", "-o", "json", dir)
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}
	var doc jsonDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON with --progress: %v\n%s", err, out)
	}
	if doc.Summary.Total != 3 {
		t.Errorf("Total = %d, want 3", doc.Summary.Total)
	}
}

func TestIdentify_DefaultCommand(t *testing.T) {
	dir := writeFixtures(t)

	out, _, err := execute(t, "--no-color", "-o", "yaml", filepath.Join(dir, "photo.png"))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(out, "type: PNG") {
		t.Errorf("unexpected output:\n%s", out)
	}

	help, _, err := execute(t)
	if err != nil {
		t.Fatalf("help error = %v", err)
	}
	if !strings.Contains(help, "Usage:") {
		t.Errorf("expected usage without arguments, got:\n%s", help)
	}
}

func TestIdentify_ExitCodes(t *testing.T) {
	dir := writeFixtures(t)

	_, _, err := execute(t, "identify", "--no-color", "--fail-on-mismatch", filepath.Join(dir, "renamed.jpg"))
	if code := ExitCode(err); code != 2 {
		t.Errorf("mismatch exit code = %d (%v), want 2", code, err)
	}

	_, _, err = execute(t, "identify", "--no-color", "--fail-on-mismatch", filepath.Join(dir, "photo.png"))
	if code := ExitCode(err); code != 0 {
		t.Errorf("match exit code = %d (%v), want 0", code, err)
	}

	out, _, err := execute(t, "identify", "--no-color", filepath.Join(dir, "missing.bin"))
	if code := ExitCode(err); code != 1 {
		t.Errorf("missing file exit code = %d (%v), want 1", code, err)
	}
	if !strings.Contains(out, "Error:") {
		t.Errorf("missing file not reported:\n%s", out)
	}

	_, _, err = execute(t, "identify", "--header-size", "100", filepath.Join(dir, "photo.png"))
	if err == nil || !strings.Contains(err.Error(), "header size") {
		t.Errorf("expected header size error, got %v", err)
	}

	_, _, err = execute(t, "identify", "--include", "*.none", dir)
	if err == nil || !strings.Contains(err.Error(), "no files") {
		t.Errorf("expected no files error, got %v", err)
	}
}

func TestIdentify_External(t *testing.T) {
	dir := writeFixtures(t)

	out, _, err := execute(t, "identify", "-o", "json", "--external", filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}

	var doc jsonDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	f := doc.Files[0]
	if f.Identification.Method != string(signature.MethodExternal) || f.Identification.Type != "Text" {
		t.Errorf("identification = %+v", f.Identification)
	}
	if f.ExtensionMatch == nil || !*f.ExtensionMatch {
		t.Errorf("extension_match = %v, want true", f.ExtensionMatch)
	}
}

func TestIdentify_Environment(t *testing.T) {
	dir := writeFixtures(t)
	t.Setenv("BEAVER_FILESNIFF_OUTPUT", "json")
	t.Setenv("BEAVER_FILESNIFF_CHECKSUMS", "sha256")

	out, _, err := execute(t, "identify", filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}
	if !strings.Contains(out, `"sha256": "`) {
		t.Errorf("environment settings ignored:\n%s", out)
	}

	// flags win over the environment
	out, _, err = execute(t, "identify", "-o", "text", "--no-color", filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("identify error = %v", err)
	}
	if !strings.Contains(out, "FILE ANALYSIS RESULTS") {
		t.Errorf("flag did not override environment:\n%s", out)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		args     []string
		wantOut  string
		wantCode int
	}{
		{args: []string{"jpg", "JPEG"}, wantOut: "match", wantCode: 0},
		{args: []string{".EXE", "PE32 executable"}, wantOut: "match", wantCode: 0},
		{args: []string{"exe", "Text"}, wantOut: "mismatch", wantCode: 2},
		{args: []string{"flac", "FLAC"}, wantOut: "no accepted types are known for .flac", wantCode: 2},
		{args: []string{"", "PNG"}, wantOut: "unchecked", wantCode: 0},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, _, err := execute(t, append([]string{"check"}, tt.args...)...)
			if code := ExitCode(err); code != tt.wantCode {
				t.Errorf("exit code = %d (%v), want %d", code, err, tt.wantCode)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output %q missing %q", out, tt.wantOut)
			}
		})
	}
}

func TestSignatures(t *testing.T) {
	out, _, err := execute(t, "signatures")
	if err != nil {
		t.Fatalf("signatures error = %v", err)
	}
	for _, want := range []string{"PNG", "89504e470d0a1a0a", "dos-stub", "riff-container"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	out, _, err = execute(t, "signatures", "-o", "json")
	if err != nil {
		t.Fatalf("signatures error = %v", err)
	}
	var views []signatureView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := signature.DefaultRegistry().Len() + len(signature.Heuristics())
	if len(views) != want {
		t.Errorf("got %d entries, want %d", len(views), want)
	}
	if views[0].TypeName != "JPEG" || views[0].Order != 1 {
		t.Errorf("first entry = %+v", views[0])
	}

	if _, _, err := execute(t, "signatures", "-o", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != Version+"\n" {
		t.Errorf("version --short = %q", out)
	}

	out, _, _ = execute(t, "version")
	if !strings.Contains(out, "filesniff "+Version) || !strings.Contains(out, "Go version:") {
		t.Errorf("unexpected version output %q", out)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	dir := t.TempDir()

	cmd := NewRootCommand()
	var stdout, stderr syncBuffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"watch", "--no-color", "--max-events", "1", "--include", "*.png", dir})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	// Keep dropping files until the watcher is up and reports one.
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("watch error = %v", err)
			}
			out := stdout.String()
			if !strings.Contains(out, "Identified as: PNG") {
				t.Errorf("unexpected output:\n%s", out)
			}
			if strings.Count(out, "FILE ANALYSIS RESULTS") != 1 {
				t.Errorf("expected exactly one report:\n%s", out)
			}
			return
		case <-ticker.C:
			_ = os.WriteFile(filepath.Join(dir, fmt.Sprintf("ignored%d.txt", i)), []byte("x"), 0o644)
			_ = os.WriteFile(filepath.Join(dir, fmt.Sprintf("drop%d.png", i)), pngBytes, 0o644)
		case <-ctx.Done():
			t.Fatal("watch did not report a file in time")
		}
	}
}

func TestSweepCache(t *testing.T) {
	cache := filesniff.NewMemoryCache()
	cache.Set("stale", 1, time.Millisecond)
	cache.Set("pinned", 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepCache(ctx, cache, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cache.Stats().Size != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expired entry not swept, size = %d", cache.Stats().Size)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweepCache did not stop after cancel")
	}
	if _, ok := cache.Get("pinned"); !ok {
		t.Error("entry without ttl was swept")
	}
}
