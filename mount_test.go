package filesniff_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/source/local"
	"github.com/gobeaver/filesniff/source/memory"
)

func newMounts(t *testing.T) (*filesniff.Mounts, *memory.Source, *memory.Source) {
	t.Helper()
	photos := memory.New()
	photos.Put("a.png", pngBytes)
	photos.Put("raw/b.jpg", jpegBytes)

	archive := memory.New()
	archive.Put("old.png", pngBytes)

	m := filesniff.NewMounts()
	if err := m.Mount("/photos", photos); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if err := m.Mount("/photos/archive", archive); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return m, photos, archive
}

func TestMounts_Mount(t *testing.T) {
	m, _, _ := newMounts(t)

	if err := m.Mount("photos/", memory.New()); !errors.Is(err, filesniff.ErrMountExists) {
		t.Errorf("expected ErrMountExists, got %v", err)
	}
	if err := m.Mount("/", memory.New()); !errors.Is(err, filesniff.ErrEmptyMountPath) {
		t.Errorf("expected ErrEmptyMountPath, got %v", err)
	}
	if err := m.Mount("/x", nil); !errors.Is(err, filesniff.ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}

	got := strings.Join(m.MountPaths(), ",")
	if got != "/photos/archive,/photos" {
		t.Errorf("MountPaths() = %s", got)
	}

	if err := m.Unmount("/photos/archive"); err != nil {
		t.Fatalf("Unmount() error = %v", err)
	}
	if err := m.Unmount("/photos/archive"); !errors.Is(err, filesniff.ErrMountNotFound) {
		t.Errorf("expected ErrMountNotFound, got %v", err)
	}
}

func TestMounts_Routing(t *testing.T) {
	m, _, _ := newMounts(t)
	ctx := context.Background()

	info, err := m.Stat(ctx, "/photos/raw/b.jpg")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Path != "/photos/raw/b.jpg" || info.Name != "b.jpg" {
		t.Errorf("unexpected info %+v", info)
	}

	// longest prefix wins
	header, err := m.ReadHeader(ctx, "/photos/archive/old.png", 4)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if string(header[1:4]) != "PNG" {
		t.Errorf("header = %q", header)
	}

	if _, err := m.Stat(ctx, "/elsewhere/file"); !errors.Is(err, filesniff.ErrMountNotFound) {
		t.Errorf("expected ErrMountNotFound, got %v", err)
	}

	root, err := m.Stat(ctx, "/")
	if err != nil || !root.IsDir {
		t.Errorf("root should be a virtual directory, got %+v, %v", root, err)
	}

	rc, err := m.Open(ctx, "/photos/a.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if len(data) != len(pngBytes) {
		t.Errorf("Open() read %d bytes", len(data))
	}
}

func TestMounts_ListContents(t *testing.T) {
	m, _, _ := newMounts(t)
	ctx := context.Background()

	paths := func(files []filesniff.FileInfo) string {
		var out []string
		for _, f := range files {
			out = append(out, f.Path)
		}
		return strings.Join(out, ",")
	}

	top, err := m.ListContents(ctx, "/", false)
	if err != nil {
		t.Fatalf("ListContents(/) error = %v", err)
	}
	if got := paths(top); got != "/photos" {
		t.Errorf("ListContents(/) = %s", got)
	}

	inside, err := m.ListContents(ctx, "/photos", true)
	if err != nil {
		t.Fatalf("ListContents(/photos) error = %v", err)
	}
	if got := paths(inside); got != "/photos/a.png,/photos/raw/b.jpg" {
		t.Errorf("ListContents(/photos) = %s", got)
	}
}

func TestMounts_LocalSourcePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.png"), pngBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	disk, err := local.New(dir)
	if err != nil {
		t.Fatalf("local.New() error = %v", err)
	}

	m := filesniff.NewMounts()
	if err := m.Mount("/disk", disk); err != nil {
		t.Fatal(err)
	}

	files, err := m.ListContents(context.Background(), "/disk", false)
	if err != nil {
		t.Fatalf("ListContents() error = %v", err)
	}
	if len(files) != 1 || files[0].Path != "/disk/x.png" {
		t.Fatalf("ListContents() = %+v", files)
	}

	a, err := filesniff.New(testConfig(), filesniff.WithSource(m))
	if err != nil {
		t.Fatal(err)
	}
	fa, err := a.Analyze(context.Background(), files[0].Path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if fa.Identification.TypeName != "PNG" {
		t.Errorf("type = %q, want PNG", fa.Identification.TypeName)
	}
}

func TestMounts_FromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Source = "mount"
	cfg.Mounts = "/a=memory,/b=memory"

	a, err := filesniff.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m, ok := a.Source().(*filesniff.Mounts)
	if !ok {
		t.Fatalf("expected *Mounts, got %T", a.Source())
	}
	if got := strings.Join(m.MountPaths(), ","); got != "/a,/b" {
		t.Errorf("MountPaths() = %s", got)
	}

	cfg.Mounts = "/a=tape"
	if _, err := filesniff.New(cfg); err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("expected registration error, got %v", err)
	}
}
