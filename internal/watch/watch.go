// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package watch notifies of changes to a set of files. Changes arriving in a burst (an editor writing a file in
// several steps, a checkout touching many files) are reported once, after a quiet interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/awslabs/ar-plc-tools/analysis/config"
	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the quiet interval after the last change before the changes are reported
const DefaultInterval = 200 * time.Millisecond

// Watcher watches files for changes. The directories of the files are watched rather than the files, so that
// files replaced by a rename (as many editors save) are still followed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *config.LogGroup
	interval time.Duration

	// files is the set of absolute paths of the watched files
	files map[string]bool
}

// New returns a watcher for the files at paths. An interval <= 0 means DefaultInterval.
func New(logger *config.LogGroup, paths []string, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, logger: logger, interval: interval, files: map[string]bool{}}
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for _, dir := range funcutil.SetToOrderedSlice(dirs) {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
		}
		logger.Debugf("Watching directory %s", dir)
	}
	return w, nil
}

// relevant returns the absolute path of the file changed by the event, if it is a watched file and the change
// may have altered its content
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.files[abs] {
		return "", false
	}
	return abs, true
}

// Run calls onChange with the changed files, in path order, each time the watched files change. Changes are
// debounced: onChange is called once the files have been quiet for the watcher's interval. Run blocks until
// ctx is done, and onChange is always called on Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			path, ok := w.relevant(event)
			if !ok {
				continue
			}
			w.logger.Tracef("%s: %s", event.Op, path)
			pending[path] = true
			if timer == nil {
				timer = time.NewTimer(w.interval)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.interval)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			paths := funcutil.SetToOrderedSlice(pending)
			pending = map[string]bool{}
			onChange(paths)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			w.logger.Warnf("File watcher error: %v", err)
		}
	}
}

// Close stops watching. Run returns an error if it is still running.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
