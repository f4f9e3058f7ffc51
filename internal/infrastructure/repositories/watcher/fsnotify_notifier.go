package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	logger "github.com/sirupsen/logrus"
)

const eventBuffer = 64

// FSNotifyNotifier reports file changes under the workspace. fsnotify watches
// single directories, so every subdirectory is added on start and whenever
// one is created.
type FSNotifyNotifier struct {
	root string
	skip map[string]struct{} // directory names never descended into
}

// NewFSNotifyNotifier creates a notifier reporting paths relative to root.
func NewFSNotifyNotifier(root string, skipDirs ...string) *FSNotifyNotifier {
	skip := map[string]struct{}{".git": {}}
	for _, dir := range skipDirs {
		skip[dir] = struct{}{}
	}
	return &FSNotifyNotifier{root: root, skip: skip}
}

// Watch starts watching dirs recursively.
func (it *FSNotifyNotifier) Watch(ctx context.Context, dirs []string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range dirs {
		if err = it.addTree(watcher, dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	out := make(chan string, eventBuffer)
	go it.loop(ctx, watcher, out)
	return out, nil
}

func (it *FSNotifyNotifier) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := it.addTree(watcher, event.Name); addErr != nil {
						logger.Warnf("Failed to watch new directory %q: %v", event.Name, addErr)
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(it.root, event.Name)
			if relErr != nil {
				continue
			}
			select {
			case out <- filepath.ToSlash(rel):
			case <-ctx.Done():
				return
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("File watcher error: %v", watchErr)
		}
	}
}

func (it *FSNotifyNotifier) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := it.skip[d.Name()]; skip && path != dir {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			return fmt.Errorf("failed to watch %s: %w", path, addErr)
		}
		return nil
	})
}
