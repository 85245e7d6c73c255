package file

import (
	"context"
	"path/filepath"

	"classical-quiz-service/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange whenever the file at path is written, created or renamed into
// place. The parent directory is watched so editors that replace the file are seen.
// It blocks until ctx is done.
func Watch(ctx context.Context, path string, log *logger.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				log.Debug("catalog file changed", "path", abs, "op", event.Op.String())
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("catalog watcher error", "error", err)
		}
	}
}
