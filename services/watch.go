package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bobinette/seedgraph/errors"
	"github.com/bobinette/seedgraph/loader"
)

// DefaultDebounce groups the events of a document being rewritten.
const DefaultDebounce = 300 * time.Millisecond

// Watch reloads the graph whenever one of the two documents of dir changes,
// until ctx is done. A failed reload is logged and the previous graph is
// kept.
func (s *GraphService) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("could not create watcher", errors.WithCause(err))
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.New("could not watch "+dir, errors.WithCause(err))
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger := s.logger.WithField("dir", dir)
	logger.Printf("watching for changes")

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("watch error: %v", err)

		case <-timerC:
			timer, timerC = nil, nil
			if err := s.Load(ctx); err != nil {
				logger.Errorf("could not reload graph: %v", err)
				continue
			}
			logger.Printf("graph reloaded")
		}
	}
}

func watched(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Base(event.Name) {
	case loader.GraphFile, loader.MetadataFile:
		return true
	}
	return false
}
