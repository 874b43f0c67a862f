package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// FileBlob stores each key as <dir>/<key>.json. Writes go to a temporary
// file that is renamed over the target, so readers never see a partial
// document.
type FileBlob struct {
	dir string
}

func NewFileBlob(dir string) (*FileBlob, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBlob{dir: dir}, nil
}

func (f *FileBlob) path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f *FileBlob) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileBlob) Set(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// FileBus is a LocalBus that also watches a FileBlob directory, so writes
// made by other processes publish Topic(key) here too. A process sees its
// own writes twice (once from Publish, once from the watcher); listeners
// re-read on every notification, so the duplicate is harmless.
type FileBus struct {
	*LocalBus
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewFileBus(dir string) (*FileBus, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	b := &FileBus{
		LocalBus: NewLocalBus(),
		watcher:  w,
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b, nil
}

func (b *FileBus) loop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			key, ok := keyFromPath(event.Name)
			if !ok || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) == 0 {
				continue
			}
			slog.Debug("Storage file changed", "key", key, "op", event.Op.String())
			_ = b.LocalBus.Publish(context.Background(), Topic(key))
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "err", err)
		}
	}
}

func keyFromPath(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExt) {
		return "", false
	}
	return strings.TrimSuffix(base, fileExt), true
}

func (b *FileBus) Close() error {
	close(b.done)
	err := b.watcher.Close()
	b.wg.Wait()
	return err
}
