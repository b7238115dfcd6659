package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnolang/slimport/internal/types"
	"github.com/gnolang/slimport/scanner"
)

const defaultSettleDelay = 100 * time.Millisecond

// Watcher re-optimizes source files as they are written.
type Watcher struct {
	engine   *Engine
	watcher  *fsnotify.Watcher
	scanners []*scanner.Scanner
	logger   *zap.Logger
	settle   time.Duration

	// OnResult is called for every processed file, when set.
	OnResult func(*types.Result)
}

// NewWatcher watches the directories of the given scanners.
func NewWatcher(engine *Engine, logger *zap.Logger, scanners ...*scanner.Scanner) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:   engine,
		watcher:  fw,
		scanners: scanners,
		logger:   logger,
		settle:   defaultSettleDelay,
	}, nil
}

// Watch blocks until ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) error {
	for _, s := range w.scanners {
		dirs, err := s.Dirs()
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
		for _, dir := range dirs {
			if err := w.watcher.Add(dir); err != nil {
				return fmt.Errorf("error adding directory to watcher: %w", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.isTarget(event.Name) {
		return
	}

	// wait for a while after file change to consider multiple changes as one
	time.Sleep(w.settle)
	w.process(event.Name)
}

func (w *Watcher) isTarget(path string) bool {
	for _, s := range w.scanners {
		if s.IsTargetFile(path) && !s.IsExcluded(path) {
			return true
		}
	}
	return false
}

func (w *Watcher) process(filename string) {
	result, err := w.engine.Run(filename)
	if err != nil {
		w.logger.Error("error processing file", zap.String("file", filename), zap.Error(err))
		return
	}

	if result.Written {
		w.logger.Info("rewrote imports", zap.String("file", filename), zap.Int("imports", len(result.Imports)))
	} else {
		w.logger.Debug("no direct imports", zap.String("file", filename))
	}
	if w.OnResult != nil {
		w.OnResult(result)
	}
}
