package gitsource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch blocks until ctx is done, invoking fn after the branch ref moves.
// Ref updates arrive as bursts of filesystem events (lock files, renames,
// packed-refs rewrites), so invocations are debounced. An error from fn
// stops the watch.
func (s *Source) Watch(ctx context.Context, branch string, debounce time.Duration, fn func(context.Context) error) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	root, err := s.Root()
	if err != nil {
		return err
	}
	gitDir := filepath.Join(root, ".git")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(gitDir); err != nil {
		return fmt.Errorf("watch %s: %w", gitDir, err)
	}
	headsDir := filepath.Join(gitDir, "refs", "heads")
	if err := watcher.Add(headsDir); err == nil {
		if nested := filepath.Dir(filepath.Join(headsDir, filepath.FromSlash(branch))); nested != headsDir {
			_ = watcher.Add(nested)
		}
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if refEvent(event) {
				pending = time.After(debounce)
			}
		case <-pending:
			pending = nil
			if err := fn(ctx); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func refEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if name == "HEAD" || name == "packed-refs" {
		return true
	}
	return strings.Contains(filepath.ToSlash(event.Name), "refs/heads/")
}
