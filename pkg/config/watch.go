package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads the config file when it changes
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch calls onChange with a freshly loaded config every time path is
// written or replaced. Reloads that fail validation are logged and skipped.
// The parent directory is watched so editors that replace the file atomically
// are picked up too.
func Watch(path string, log logrus.FieldLogger, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	target := filepath.Clean(path)

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := load(path)
				if err != nil {
					log.WithError(err).WithField("path", path).Warn("ignoring invalid config reload")
					continue
				}
				log.WithField("path", path).Info("configuration reloaded")
				onChange(cfg)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			}
		}
	}()

	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
