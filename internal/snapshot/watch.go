package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch streams the keys of snapshots that appear in the tree until ctx is
// cancelled. Folders created after the call are picked up as they appear.
// Each key is reported at most once. The channel is closed when ctx is done
// or the watcher fails.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.base, 0o700); err != nil {
		return nil, fmt.Errorf("snapshot: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("snapshot: create watcher: %w", err)
	}

	dirs, err := collectDirs(s.base)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("snapshot: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("snapshot: watch %s: %w", dir, err)
		}
	}

	keys := make(chan string, 16)
	go func() {
		defer close(keys)
		defer watcher.Close()

		seen := map[string]struct{}{}
		emit := func(path string) bool {
			key, ok := s.keyFor(path)
			if !ok {
				return true
			}
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}
			select {
			case keys <- key:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("snapshot watcher error", "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				info, err := os.Stat(evt.Name)
				if err != nil {
					continue
				}
				if !info.IsDir() {
					if !emit(evt.Name) {
						return
					}
					continue
				}
				// A new bucket folder may already hold files written before
				// the watch was added.
				sub, err := collectDirs(evt.Name)
				if err != nil {
					s.log.Warn("snapshot watcher scan failed", "dir", evt.Name, "error", err)
					continue
				}
				for _, dir := range sub {
					if err := watcher.Add(dir); err != nil {
						s.log.Warn("snapshot watcher add failed", "dir", dir, "error", err)
					}
					files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
					for _, f := range files {
						if !emit(f) {
							return
						}
					}
				}
			}
		}
	}()

	return keys, nil
}

// keyFor maps an absolute file path in the tree to its snapshot key.
func (s *Store) keyFor(path string) (string, bool) {
	rel, err := filepath.Rel(s.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	key := filepath.ToSlash(rel)
	return key, isSnapshotKey(key)
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == incomingDir {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}
