package plotly

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iafilius/EpiViewer/src/results"
)

// Watch calls onChange after path is written, created or renamed into place. Bursts of
// events within debounce are coalesced into one call. It blocks until ctx is done;
// errors from onChange are logged and watching continues.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func() error) error {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	// watch the folder: writers often replace the file instead of editing it
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	results.Infof("[watch] watching %s", target)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			results.Debugf("[watch] %s %s", ev.Op, ev.Name)
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			results.Warnf("[watch] %v", err)
		case <-timer.C:
			if err := onChange(); err != nil {
				results.Warnf("[watch] rebuild failed: %v", err)
			}
		}
	}
}
