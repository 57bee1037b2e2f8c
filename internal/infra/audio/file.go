package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var clipExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
}

// FileSource serves recordings dropped into a directory, oldest name first.
// A consumed file is renamed with a .processed suffix.
type FileSource struct {
	dir          string
	pollInterval time.Duration
	processed    map[string]bool
	mu           sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:          dir,
		pollInterval: 500 * time.Millisecond,
		processed:    make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextClip(ctx context.Context) ([]byte, error) {
	if clip, err := f.checkForNewFile(); err != nil || clip != nil {
		return clip, err
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			clip, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if clip != nil {
				return clip, nil
			}
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !clipExtensions[filepath.Ext(entry.Name())] {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		// Best effort; the processed map still prevents a second read.
		_ = os.Rename(path, path+".processed")

		return data, nil
	}

	return nil, nil
}
