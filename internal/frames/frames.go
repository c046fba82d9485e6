// Package frames feeds camera frames into the pipeline. The capture process
// (GStreamer, ffmpeg, or a camera daemon) drops JPEGs into a spool directory;
// DirSource consumes them in filename order and removes them after the read.
package frames

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Source yields raw frames in capture order.
type Source interface {
	// Next blocks until a frame is available or ctx is done.
	Next(ctx context.Context) ([]byte, error)
}

// DirSource reads JPEG frames from a spool directory, oldest filename first.
// Each consumed frame is deleted so the spool stays bounded.
type DirSource struct {
	dir      string
	interval time.Duration
	pending  []string
	remove   func(string) error
}

// NewDirSource creates a source over dir, polling at the given interval when
// the spool is empty.
func NewDirSource(dir string, interval time.Duration) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame path %s is not a directory", dir)
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &DirSource{dir: dir, interval: interval, remove: os.Remove}, nil
}

// Next returns the oldest spooled frame, waiting for one to appear if the
// spool is empty. Unreadable files are skipped and removed.
func (s *DirSource) Next(ctx context.Context) ([]byte, error) {
	for {
		for len(s.pending) > 0 {
			path := s.pending[0]
			s.pending = s.pending[1:]

			data, err := os.ReadFile(path)
			removeErr := s.remove(path)
			if err != nil {
				// Frame may still be mid-write; it will reappear on
				// the next scan if the remove failed too.
				continue
			}
			if removeErr != nil {
				// A stuck remove must not stop the checkpoint. The
				// frame stays in the spool and the remove is retried
				// when the next scan picks it up again.
				log.Printf("failed to remove consumed frame %s, will retry: %v", path, removeErr)
			}
			return data, nil
		}

		if err := s.scan(); err != nil {
			return nil, err
		}
		if len(s.pending) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

func (s *DirSource) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to scan frame directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
			paths = append(paths, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	s.pending = paths
	return nil
}
