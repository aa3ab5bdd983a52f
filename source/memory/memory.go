// Package memory provides an in-memory HeaderSource, useful for tests and
// for classifying content that never touches a disk.
package memory

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/filesniff"
	"github.com/gobwas/glob"
)

// memoryFile represents a file stored in memory
type memoryFile struct {
	content []byte
	modTime time.Time
	readErr error
}

// watchEntry represents a single watch subscription
type watchEntry struct {
	dir    string
	events chan string
}

// Source provides an in-memory implementation of filesniff.HeaderSource
type Source struct {
	mu    sync.RWMutex
	files map[string]*memoryFile

	watchMu sync.RWMutex
	watches []*watchEntry
}

// New creates an empty in-memory source
func New() *Source {
	return &Source{
		files: make(map[string]*memoryFile),
	}
}

// Put stores content at path, replacing anything already there, and
// notifies watchers of the parent directory.
func (s *Source) Put(path string, content []byte) {
	s.PutWithModTime(path, content, time.Now())
}

// PutWithModTime is Put with an explicit modification time
func (s *Source) PutWithModTime(path string, content []byte, modTime time.Time) {
	path = normalizePath(path)
	data := make([]byte, len(content))
	copy(data, content)

	s.mu.Lock()
	s.files[path] = &memoryFile{content: data, modTime: modTime}
	s.mu.Unlock()

	s.notifyWatchers(path)
}

// SetReadError makes header reads and opens of path fail with err.
// Stat keeps working, mirroring a file that exists but cannot be read.
func (s *Source) SetReadError(path string, err error) {
	path = normalizePath(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.files[path]; ok {
		f.readErr = err
	}
}

// Remove deletes the file at path
func (s *Source) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, normalizePath(path))
}

// FileCount returns the number of stored files
func (s *Source) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Stat implements filesniff.HeaderSource. Directories exist implicitly
// whenever a file lives beneath them.
func (s *Source) Stat(ctx context.Context, path string) (*filesniff.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path = normalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if file, exists := s.files[path]; exists {
		return &filesniff.FileInfo{
			Name:    filepath.Base(path),
			Path:    path,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		}, nil
	}

	if s.isDirLocked(path) {
		return &filesniff.FileInfo{
			Name:  filepath.Base(path),
			Path:  path,
			IsDir: true,
		}, nil
	}

	return nil, &filesniff.PathError{Op: "stat", Path: path, Err: filesniff.ErrNotExist}
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
		return nil, filesniff.WrapPathErr("readheader", path, err)
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

	path = normalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.files[path]
	if !exists {
		if s.isDirLocked(path) {
			return nil, &filesniff.PathError{Op: "open", Path: path, Err: filesniff.ErrIsDir}
		}
		return nil, &filesniff.PathError{Op: "open", Path: path, Err: filesniff.ErrNotExist}
	}
	if file.readErr != nil {
		return nil, &filesniff.PathError{Op: "open", Path: path, Err: file.readErr}
	}

	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// ListContents implements filesniff.CanList. Only files are returned;
// directories are implicit in this source.
func (s *Source) ListContents(ctx context.Context, path string, recursive bool) ([]filesniff.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path = normalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, isFile := s.files[path]; isFile {
		return nil, &filesniff.PathError{Op: "listcontents", Path: path, Err: filesniff.ErrNotDir}
	}
	if !s.isDirLocked(path) {
		return nil, &filesniff.PathError{Op: "listcontents", Path: path, Err: filesniff.ErrNotExist}
	}

	var files []filesniff.FileInfo
	for filePath, file := range s.files {
		rel, ok := relativeTo(path, filePath)
		if !ok {
			continue
		}
		if !recursive && strings.Contains(rel, "/") {
			continue
		}
		files = append(files, filesniff.FileInfo{
			Name:    filepath.Base(filePath),
			Path:    filePath,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Glob returns every file whose path matches pattern, sorted by path.
// Supports patterns like "**/*.png", "*.exe", "uploads/*".
func (s *Source) Glob(ctx context.Context, pattern string) ([]filesniff.FileInfo, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &filesniff.PathError{Op: "glob", Path: pattern, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []filesniff.FileInfo
	for filePath, file := range s.files {
		if !g.Match(filePath) {
			continue
		}
		files = append(files, filesniff.FileInfo{
			Name:    filepath.Base(filePath),
			Path:    filePath,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Watch implements filesniff.CanWatch. Every Put under dir (at any depth)
// is reported until ctx is done. Events are dropped when the consumer
// falls more than 64 events behind.
func (s *Source) Watch(ctx context.Context, dir string) (<-chan string, <-chan error, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	entry := &watchEntry{dir: normalizePath(dir), events: make(chan string, 64)}
	errs := make(chan error)

	s.watchMu.Lock()
	s.watches = append(s.watches, entry)
	s.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		s.removeWatch(entry)
		close(entry.events)
		close(errs)
	}()

	return entry.events, errs, nil
}

// notifyWatchers signals all watchers whose directory contains path
func (s *Source) notifyWatchers(path string) {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()

	for _, entry := range s.watches {
		if _, ok := relativeTo(entry.dir, path); ok {
			select {
			case entry.events <- path:
			default:
			}
		}
	}
}

func (s *Source) removeWatch(target *watchEntry) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for i, entry := range s.watches {
		if entry == target {
			s.watches[i] = s.watches[len(s.watches)-1]
			s.watches = s.watches[:len(s.watches)-1]
			return
		}
	}
}

func (s *Source) isDirLocked(path string) bool {
	if path == "" {
		return true
	}
	prefix := path + "/"
	for filePath := range s.files {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

// relativeTo returns p relative to dir when p lies beneath dir
func relativeTo(dir, p string) (string, bool) {
	if dir == "" {
		return p, true
	}
	if !strings.HasPrefix(p, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, dir+"/"), true
}

// normalizePath normalizes a file path
func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" || path == "." {
		return ""
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
}

// Ensure Source implements interfaces
var (
	_ filesniff.HeaderSource = (*Source)(nil)
	_ filesniff.CanList      = (*Source)(nil)
	_ filesniff.CanOpen      = (*Source)(nil)
	_ filesniff.CanWatch     = (*Source)(nil)
)
