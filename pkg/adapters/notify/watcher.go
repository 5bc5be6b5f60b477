package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Debounce collapses bursts of file events (a SQLite commit touches the
// database, its journal and its WAL) into one change notification.
const Debounce = 100 * time.Millisecond

// WatchFile calls onChange after writes to path or its SQLite sidecar files
// (-wal, -journal, -shm). It watches the parent directory, since SQLite
// recreates sidecars, and returns when ctx is done.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(Debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("path", path).Msg("File watcher error")
		}
	}
}

// LocalPath extracts the file path from a local SQLite database URL,
// returning "" for in-memory and remote databases.
func LocalPath(dbURL string) string {
	if strings.Contains(dbURL, "mode=memory") || strings.Contains(dbURL, ":memory:") {
		return ""
	}
	if strings.Contains(dbURL, "://") {
		return ""
	}
	p := strings.TrimPrefix(dbURL, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}
