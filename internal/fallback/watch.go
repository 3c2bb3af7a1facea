package fallback

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the curated table whenever the file changes, until ctx is
// cancelled. A reload that fails to parse keeps the previous table in place.
// The parent directory is watched rather than the file itself, so editors
// that replace the file via rename keep working.
func (m *Matcher) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				table, err := LoadTable(path)
				if err != nil {
					log.Printf("fallback: reload of %s failed, keeping previous table: %v", path, err)
					continue
				}
				m.Replace(table)
				log.Printf("fallback: reloaded %s (%d categories)", path, len(table.Categories))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("fallback: watcher error: %v", err)
			}
		}
	}()

	return nil
}
