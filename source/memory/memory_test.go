package memory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gobeaver/filesniff"
)

func seeded() *Source {
	s := New()
	s.Put("a.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	s.Put("docs/report.pdf", []byte("%PDF-1.4 body"))
	s.Put("docs/old/memo.txt", []byte("hello"))
	return s
}

func TestStat(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		info, err := s.Stat(ctx, "/docs/report.pdf")
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Name != "report.pdf" || info.Path != "docs/report.pdf" || info.Size != 13 || info.IsDir {
			t.Errorf("unexpected info %+v", info)
		}
	})

	t.Run("implicit directory", func(t *testing.T) {
		info, err := s.Stat(ctx, "docs")
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !info.IsDir {
			t.Error("expected a directory")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.Stat(ctx, "nope.bin")
		if !filesniff.IsNotExist(err) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})
}

func TestReadHeader(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		n    int
		want string
	}{
		{"truncated to n", "docs/report.pdf", 4, "%PDF"},
		{"short file returns everything", "docs/old/memo.txt", 64, "hello"},
		{"zero length", "docs/old/memo.txt", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ReadHeader(ctx, tt.path, tt.n)
			if err != nil {
				t.Fatalf("ReadHeader() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ReadHeader() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("directory", func(t *testing.T) {
		_, err := s.ReadHeader(ctx, "docs", 8)
		if !errors.Is(err, filesniff.ErrIsDir) {
			t.Errorf("expected ErrIsDir, got %v", err)
		}
	})

	t.Run("injected read error", func(t *testing.T) {
		s.SetReadError("a.png", filesniff.ErrPermission)
		if _, err := s.Stat(ctx, "a.png"); err != nil {
			t.Fatalf("Stat() should still succeed, got %v", err)
		}
		_, err := s.ReadHeader(ctx, "a.png", 8)
		if !filesniff.IsPermission(err) {
			t.Errorf("expected ErrPermission, got %v", err)
		}
	})
}

func TestPutCopiesContent(t *testing.T) {
	s := New()
	data := []byte("abc")
	s.Put("x.txt", data)
	data[0] = 'z'

	rc, err := s.Open(context.Background(), "x.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "abc" {
		t.Errorf("stored content changed with caller's slice: %q", got)
	}
}

func TestListContents(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	tests := []struct {
		name      string
		dir       string
		recursive bool
		want      []string
	}{
		{"root flat", "", false, []string{"a.png"}},
		{"root recursive", "/", true, []string{"a.png", "docs/old/memo.txt", "docs/report.pdf"}},
		{"subdir flat", "docs", false, []string{"docs/report.pdf"}},
		{"subdir recursive", "docs", true, []string{"docs/old/memo.txt", "docs/report.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := s.ListContents(ctx, tt.dir, tt.recursive)
			if err != nil {
				t.Fatalf("ListContents() error = %v", err)
			}
			if len(files) != len(tt.want) {
				t.Fatalf("got %d files, want %d (%+v)", len(files), len(tt.want), files)
			}
			for i, f := range files {
				if f.Path != tt.want[i] {
					t.Errorf("files[%d] = %q, want %q", i, f.Path, tt.want[i])
				}
			}
		})
	}

	t.Run("file is not a directory", func(t *testing.T) {
		_, err := s.ListContents(ctx, "a.png", false)
		if !errors.Is(err, filesniff.ErrNotDir) {
			t.Errorf("expected ErrNotDir, got %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := s.ListContents(ctx, "nowhere", false)
		if !filesniff.IsNotExist(err) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})
}

func TestGlob(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	tests := []struct {
		pattern string
		want    int
	}{
		{"*.png", 1},
		{"docs/*", 1},
		{"docs/**", 2},
		{"**.txt", 1},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			files, err := s.Glob(ctx, tt.pattern)
			if err != nil {
				t.Fatalf("Glob() error = %v", err)
			}
			if len(files) != tt.want {
				t.Errorf("Glob(%q) matched %d files, want %d", tt.pattern, len(files), tt.want)
			}
		})
	}

	if _, err := s.Glob(ctx, "[unclosed"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestWatch(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	events, errs, err := s.Watch(ctx, "incoming")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	s.Put("elsewhere/ignored.bin", []byte{1})
	s.Put("incoming/upload.jpg", []byte{0xFF, 0xD8, 0xFF})

	select {
	case got := <-events:
		if got != "incoming/upload.jpg" {
			t.Errorf("event = %q, want incoming/upload.jpg", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()

	select {
	case _, ok := <-errs:
		if ok {
			t.Error("expected error channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after cancel")
	}
}

func TestRegisteredFactory(t *testing.T) {
	src, err := filesniff.CreateSource(&filesniff.Config{Source: "memory"})
	if err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}
	if _, ok := src.(*Source); !ok {
		t.Errorf("expected *memory.Source, got %T", src)
	}
}
