package filesniff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrMountNotFound is returned when no mount point matches the path
	ErrMountNotFound = errors.New("no mount point found for path")
	// ErrMountExists is returned when trying to mount at an existing path
	ErrMountExists = errors.New("mount point already exists")
	// ErrEmptyMountPath is returned when the mount path is empty
	ErrEmptyMountPath = errors.New("mount path cannot be empty")
	// ErrNilSource is returned when trying to mount a nil source
	ErrNilSource = errors.New("source cannot be nil")
)

// Mounts combines several header sources under virtual path prefixes, so
// one batch can span a local directory and a bucket:
//
//	m := filesniff.NewMounts()
//	m.Mount("/disk", localSource)
//	m.Mount("/bucket", s3Source)
//	a, _ := filesniff.New(cfg, filesniff.WithSource(m))
//
// Nested mounts resolve by longest prefix.
type Mounts struct {
	mu          sync.RWMutex
	mounts      map[string]HeaderSource
	sortedPaths []string
}

// NewMounts creates an empty mount table
func NewMounts() *Mounts {
	return &Mounts{
		mounts: make(map[string]HeaderSource),
	}
}

// Mount attaches src at mountPath
func (m *Mounts) Mount(mountPath string, src HeaderSource) error {
	if src == nil {
		return ErrNilSource
	}

	mountPath = normalizeMountPath(mountPath)
	if mountPath == "" || mountPath == "/" {
		return ErrEmptyMountPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; exists {
		return fmt.Errorf("%w: %s", ErrMountExists, mountPath)
	}

	m.mounts[mountPath] = src
	m.updateSortedPaths()
	return nil
}

// Unmount detaches the source at mountPath
func (m *Mounts) Unmount(mountPath string) error {
	mountPath = normalizeMountPath(mountPath)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[mountPath]; !exists {
		return fmt.Errorf("%w: %s", ErrMountNotFound, mountPath)
	}

	delete(m.mounts, mountPath)
	m.updateSortedPaths()
	return nil
}

// MountPaths returns all mount paths, longest first
func (m *Mounts) MountPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.sortedPaths))
	copy(out, m.sortedPaths)
	return out
}

// resolve finds the source owning p and the path relative to its mount
func (m *Mounts) resolve(p string) (HeaderSource, string, string, error) {
	p = normalizeMountPath(p)
	if p == "" {
		return nil, "", "", ErrEmptyMountPath
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mountPath := range m.sortedPaths {
		if p == mountPath || strings.HasPrefix(p, mountPath+"/") {
			rel := strings.TrimPrefix(strings.TrimPrefix(p, mountPath), "/")
			return m.mounts[mountPath], mountPath, rel, nil
		}
	}

	return nil, "", "", &PathError{Op: "resolve", Path: p, Err: ErrMountNotFound}
}

// Must be called with the lock held.
func (m *Mounts) updateSortedPaths() {
	paths := make([]string, 0, len(m.mounts))
	for p := range m.mounts {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] < paths[j]
	})
	m.sortedPaths = paths
}

// normalizeMountPath ensures a leading slash and no trailing slash
func normalizeMountPath(p string) string {
	if p == "" {
		return ""
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Stat implements HeaderSource. The root and any path leading to a mount
// point are virtual directories.
func (m *Mounts) Stat(ctx context.Context, p string) (*FileInfo, error) {
	src, mountPath, rel, err := m.resolve(p)
	if err != nil {
		if m.isVirtualDir(normalizeMountPath(p)) {
			clean := normalizeMountPath(p)
			return &FileInfo{Name: path.Base(clean), Path: clean, IsDir: true}, nil
		}
		return nil, err
	}

	info, err := src.Stat(ctx, rel)
	if err != nil {
		return nil, err
	}

	out := *info
	out.Path = path.Join(mountPath, rel)
	return &out, nil
}

// ReadHeader implements HeaderSource
func (m *Mounts) ReadHeader(ctx context.Context, p string, n int) ([]byte, error) {
	src, _, rel, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	return src.ReadHeader(ctx, rel, n)
}

// Open implements CanOpen when the owning source does
func (m *Mounts) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	src, _, rel, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	opener, ok := src.(CanOpen)
	if !ok {
		return nil, &PathError{Op: "open", Path: p, Err: ErrNotSupported}
	}
	return opener.Open(ctx, rel)
}

// ListContents implements CanList. Listing a virtual directory returns the
// mount points beneath it; listing inside a mount delegates to its source.
func (m *Mounts) ListContents(ctx context.Context, p string, recursive bool) ([]FileInfo, error) {
	src, mountPath, rel, err := m.resolve(p)
	if err != nil {
		return m.listMountPoints(ctx, normalizeMountPath(p), recursive)
	}

	lister, ok := src.(CanList)
	if !ok {
		return nil, &PathError{Op: "listcontents", Path: p, Err: ErrNotSupported}
	}

	entries, err := lister.ListContents(ctx, rel, recursive)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Path = path.Join(mountPath, sourceRelative(src, entries[i].Path))
	}
	return entries, nil
}

// sourceRelative strips a rooted source's base directory from a path it
// reported, so the entry can be re-addressed through the mount.
func sourceRelative(src HeaderSource, p string) string {
	rooted, ok := src.(interface{ Root() string })
	if !ok || rooted.Root() == "" {
		return p
	}
	rel, err := filepath.Rel(rooted.Root(), p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}

func (m *Mounts) isVirtualDir(p string) bool {
	if p == "/" {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for mountPath := range m.mounts {
		if strings.HasPrefix(mountPath, p+"/") {
			return true
		}
	}
	return false
}

func (m *Mounts) listMountPoints(ctx context.Context, prefix string, recursive bool) ([]FileInfo, error) {
	if !m.isVirtualDir(prefix) {
		return nil, &PathError{Op: "listcontents", Path: prefix, Err: ErrMountNotFound}
	}

	m.mu.RLock()
	var children []string
	seen := make(map[string]bool)
	base := strings.TrimSuffix(prefix, "/") + "/"
	for mountPath := range m.mounts {
		if !strings.HasPrefix(mountPath, base) {
			continue
		}
		name := strings.SplitN(strings.TrimPrefix(mountPath, base), "/", 2)[0]
		if !seen[name] {
			seen[name] = true
			children = append(children, base+name)
		}
	}
	m.mu.RUnlock()
	sort.Strings(children)

	var files []FileInfo
	for _, child := range children {
		files = append(files, FileInfo{Name: path.Base(child), Path: child, IsDir: true})
		if !recursive {
			continue
		}
		nested, err := m.ListContents(ctx, child, true)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}

var (
	_ HeaderSource = (*Mounts)(nil)
	_ CanList      = (*Mounts)(nil)
	_ CanOpen      = (*Mounts)(nil)
)

func init() {
	RegisterSource("mount", func(cfg *Config) (HeaderSource, error) {
		entries, err := cfg.MountEntries()
		if err != nil {
			return nil, err
		}

		m := NewMounts()
		for _, entry := range entries {
			sub := *cfg
			sub.Source = entry.Source
			src, err := CreateSource(&sub)
			if err != nil {
				return nil, fmt.Errorf("mount %s: %w", entry.Path, err)
			}
			if err := m.Mount(entry.Path, src); err != nil {
				return nil, err
			}
		}
		return m, nil
	})
}
