// Package export writes extracted frame sequences to disk and reads them
// back for viewing.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/pkg/util"
)

const (
	// FramePattern names exported frames, printf-style
	FramePattern = "frame_%04d.jpg"
	// ManifestName is the sequence description written next to the frames
	ManifestName = "frames.yaml"

	defaultWorkers = 4
)

// Manifest describes an exported sequence
type Manifest struct {
	Source    string          `yaml:"source,omitempty"`
	CreatedAt time.Time       `yaml:"created_at"`
	Frames    []ManifestEntry `yaml:"frames"`
}

// ManifestEntry is one frame of an exported sequence
type ManifestEntry struct {
	Index  int     `yaml:"index"`
	Time   float64 `yaml:"time"`
	File   string  `yaml:"file"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// Writer exports sequences with a bounded number of concurrent file writes
type Writer struct {
	logger  zerolog.Logger
	workers int
}

// NewWriter creates a writer; workers <= 0 uses the default
func NewWriter(logger zerolog.Logger, workers int) *Writer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Writer{
		logger:  logger.With().Str("component", "export").Logger(),
		workers: workers,
	}
}

// WriteSequence writes every frame of seq into dir followed by the manifest.
// The manifest is only written once all frames are on disk.
func (w *Writer) WriteSequence(ctx context.Context, dir, source string, seq frames.Sequence) (*Manifest, error) {
	if seq.Len() == 0 {
		return nil, frames.ErrEmptyResult
	}
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := w.removeStale(dir, seq.Len()); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Source:    source,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Frames:    make([]ManifestEntry, seq.Len()),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, f := range seq {
		name := fmt.Sprintf(FramePattern, i)
		manifest.Frames[i] = ManifestEntry{
			Index:  f.Index,
			Time:   f.Time,
			File:   name,
			Width:  f.Width,
			Height: f.Height,
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	w.logger.Info().
		Str("dir", dir).
		Int("frames", seq.Len()).
		Msg("sequence exported")

	return manifest, nil
}

// removeStale deletes frames from an earlier, longer export into dir. The
// image2 demuxer reads numbered files until the first gap, so leftovers
// would otherwise end up in a preview clip.
func (w *Writer) removeStale(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return fmt.Errorf("list old frames: %w", err)
	}

	removed := 0
	for _, path := range matches {
		var index int
		if _, err := fmt.Sscanf(filepath.Base(path), FramePattern, &index); err != nil {
			continue
		}
		if index < keep {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove old frame: %w", err)
		}
		removed++
	}

	if removed > 0 {
		w.logger.Debug().Str("dir", dir).Int("removed", removed).Msg("removed frames from previous export")
	}
	return nil
}

// ReadSequence loads a sequence previously written by WriteSequence.
func (w *Writer) ReadSequence(ctx context.Context, dir string) (frames.Sequence, *Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", frames.ErrLoadFailure, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: parse manifest: %w", frames.ErrLoadFailure, err)
	}
	if len(manifest.Frames) == 0 {
		return nil, nil, frames.ErrEmptyResult
	}

	seq := make(frames.Sequence, len(manifest.Frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, entry := range manifest.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(filepath.Join(dir, filepath.Base(entry.File)))
			if err != nil {
				return fmt.Errorf("%w: %w", frames.ErrLoadFailure, err)
			}
			seq[i] = frames.Frame{
				Index:  i,
				Time:   entry.Time,
				Width:  entry.Width,
				Height: entry.Height,
				Data:   raw,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	w.logger.Debug().Str("dir", dir).Int("frames", len(seq)).Msg("sequence loaded")
	return seq, &manifest, nil
}
