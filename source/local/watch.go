package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobeaver/filesniff"
)

// newWatcher is replaced in tests
var newWatcher = newFSWatcher

// Watch implements filesniff.CanWatch using fsnotify. Files created or
// written anywhere under dir are reported once they have been quiet for the
// settle delay, so a file being copied in is reported once, complete.
// New subdirectories are watched as they appear.
func (s *Source) Watch(ctx context.Context, dir string) (<-chan string, <-chan error, error) {
	fullPath, err := s.resolve("watch", dir)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, nil, mapError("watch", dir, err)
	}
	if !info.IsDir() {
		return nil, nil, &filesniff.PathError{Op: "watch", Path: dir, Err: filesniff.ErrNotDir}
	}

	watcher, err := newWatcher()
	if err != nil {
		return nil, nil, &filesniff.PathError{Op: "watch", Path: dir, Err: err}
	}

	if err := addTree(watcher, fullPath); err != nil {
		watcher.Close()
		return nil, nil, &filesniff.PathError{Op: "watch", Path: dir, Err: err}
	}

	out := make(chan string)
	errs := make(chan error)

	go s.watchLoop(ctx, watcher, out, errs)

	return out, errs, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher fsWatcher, out chan<- string, errs chan<- error) {
	defer close(errs)
	defer close(out)
	defer watcher.Close()

	tick := s.settle / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	// path -> time of the last event seen for it
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op.Has(fsnotify.Create) {
					_ = addTree(watcher, event.Name)
				}
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			select {
			case errs <- err:
			case <-ctx.Done():
				return
			}

		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= s.settle {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)

			for _, path := range ready {
				delete(pending, path)
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// addTree watches root and every directory beneath it
func addTree(watcher fsWatcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil && path == root {
				return err
			}
		}
		return nil
	})
}
