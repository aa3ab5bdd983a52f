// Package local reads file headers from the local filesystem.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobeaver/filesniff"
)

// Source provides a local filesystem implementation of filesniff.HeaderSource
type Source struct {
	root   string
	settle time.Duration
}

// Option configures a Source
type Option func(*Source)

// WithSettleDelay sets how long a watched file must be quiet before it is
// reported. Defaults to 250ms.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Source) {
		s.settle = d
	}
}

// New creates a local source. With an empty root, paths are used as given
// (relative to the working directory). With a root, relative paths are
// resolved against it and anything outside it is refused.
func New(root string, opts ...Option) (*Source, error) {
	s := &Source{settle: 250 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}

	if root == "" {
		return s, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, mapError("open", root, err)
	}
	if !info.IsDir() {
		return nil, &filesniff.PathError{Op: "open", Path: root, Err: filesniff.ErrNotDir}
	}

	s.root = absRoot
	return s, nil
}

// Root returns the absolute base path, or "" when unconfined
func (s *Source) Root() string {
	return s.root
}

// resolve maps a caller path to an absolute filesystem path
func (s *Source) resolve(op, path string) (string, error) {
	var full string
	switch {
	case s.root == "":
		full = path
	case filepath.IsAbs(path):
		full = filepath.Clean(path)
	default:
		full = filepath.Join(s.root, filepath.Clean(path))
	}

	full, err := filepath.Abs(full)
	if err != nil {
		return "", &filesniff.PathError{Op: op, Path: path, Err: err}
	}

	if s.root != "" && !isPathUnderRoot(s.root, full) {
		return "", &filesniff.PathError{Op: op, Path: path, Err: filesniff.ErrNotAllowed}
	}

	return full, nil
}

// Stat implements filesniff.HeaderSource. The returned Path is absolute.
func (s *Source) Stat(ctx context.Context, path string) (*filesniff.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := s.resolve("stat", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError("stat", path, err)
	}

	return fileInfo(fullPath, info), nil
}

// ReadHeader implements filesniff.HeaderSource
func (s *Source) ReadHeader(ctx context.Context, path string, n int) ([]byte, error) {
	rc, err := s.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	header, err := filesniff.ReadHeaderFrom(rc, n)
	if err != nil {
		return nil, &filesniff.PathError{Op: "readheader", Path: path, Err: err}
	}
	return header, nil
}

// Open implements filesniff.CanOpen
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := s.resolve("open", path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, mapError("open", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mapError("open", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, &filesniff.PathError{Op: "open", Path: path, Err: filesniff.ErrIsDir}
	}

	return f, nil
}

// ListContents implements filesniff.CanList. Entries carry absolute paths
// and are sorted by path.
func (s *Source) ListContents(ctx context.Context, path string, recursive bool) ([]filesniff.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := s.resolve("listcontents", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError("listcontents", path, err)
	}
	if !info.IsDir() {
		return nil, &filesniff.PathError{Op: "listcontents", Path: path, Err: filesniff.ErrNotDir}
	}

	var files []filesniff.FileInfo

	if recursive {
		err = filepath.WalkDir(fullPath, func(walkPath string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped rather than failing the listing
				if walkPath != fullPath && d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return err
			}
			if walkPath == fullPath {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			files = append(files, *fileInfo(walkPath, info))
			return nil
		})
		if err != nil {
			return nil, mapError("listcontents", path, err)
		}
	} else {
		entries, err := os.ReadDir(fullPath)
		if err != nil {
			return nil, mapError("listcontents", path, err)
		}

		files = make([]filesniff.FileInfo, 0, len(entries))
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			files = append(files, *fileInfo(filepath.Join(fullPath, entry.Name()), info))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

func fileInfo(fullPath string, info os.FileInfo) *filesniff.FileInfo {
	fi := &filesniff.FileInfo{
		Name:    info.Name(),
		Path:    fullPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	if md := extractPlatformInfo(info); len(md) > 0 {
		fi.Metadata = md
	}
	return fi
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// mapError translates os errors into filesniff sentinels
func mapError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &filesniff.PathError{Op: op, Path: path, Err: filesniff.ErrNotExist}
	case errors.Is(err, fs.ErrPermission):
		return &filesniff.PathError{Op: op, Path: path, Err: filesniff.ErrPermission}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return filesniff.WrapPathErr(op, path, err)
	}
}

// Ensure Source implements interfaces
var (
	_ filesniff.HeaderSource = (*Source)(nil)
	_ filesniff.CanList      = (*Source)(nil)
	_ filesniff.CanOpen      = (*Source)(nil)
	_ filesniff.CanWatch     = (*Source)(nil)
)
