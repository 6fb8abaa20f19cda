package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DirSource replays JPEG files from a directory in lexical order. It backs
// offline runs and tests where no live camera is present.
type DirSource struct {
	paths []string
	index int
	loop  bool
}

// NewDirSource creates a source over all .jpg files in dir.
func NewDirSource(dir string, loop bool) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".jpg" || ext == ".jpeg" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrCameraNotAvailable, dir)
	}

	return &DirSource{paths: paths, loop: loop}, nil
}

// Read returns the next frame, or ErrStreamEnded once all files are consumed
// in non-loop mode.
func (s *DirSource) Read(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.index >= len(s.paths) {
		if !s.loop {
			return nil, ErrStreamEnded
		}
		s.index = 0
	}

	data, err := os.ReadFile(s.paths[s.index])
	s.index++
	if err != nil {
		return nil, fmt.Errorf("read frame file: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	return &Frame{
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: time.Now(),
	}, nil
}

// Close is a no-op for directory sources.
func (s *DirSource) Close() error {
	return nil
}
