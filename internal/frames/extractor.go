package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/rs/zerolog"
)

// Default extraction settings
const (
	DefaultFrameCount   = 100
	DefaultMaxDimension = 800
	DefaultQuality      = 80
	DefaultSeekTimeout  = 10 * time.Second
)

// Options configures frame extraction
type Options struct {
	FrameCount   int
	MaxDimension int
	Quality      int // JPEG quality 1-100
	SeekTimeout  time.Duration
}

// DefaultOptions returns the settings used when no config overrides them.
func DefaultOptions() Options {
	return Options{
		FrameCount:   DefaultFrameCount,
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		SeekTimeout:  DefaultSeekTimeout,
	}
}

// Extractor samples still frames from a Source at uniform intervals
type Extractor struct {
	logger zerolog.Logger
	opts   Options
}

// NewExtractor creates an extractor. Zero option fields fall back to
// defaults; a negative SeekTimeout waits for every seek indefinitely.
func NewExtractor(logger zerolog.Logger, opts Options) *Extractor {
	def := DefaultOptions()
	if opts.FrameCount == 0 {
		opts.FrameCount = def.FrameCount
	}
	if opts.MaxDimension == 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}
	if opts.SeekTimeout == 0 {
		opts.SeekTimeout = def.SeekTimeout
	}

	return &Extractor{
		logger: logger.With().Str("component", "extractor").Logger(),
		opts:   opts,
	}
}

// Options returns the effective settings.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract samples the configured number of frames from src.
func (e *Extractor) Extract(ctx context.Context, src Source, progress ProgressFunc) (Sequence, error) {
	return e.ExtractN(ctx, src, e.opts.FrameCount, progress)
}

// ExtractN seeks src to n uniformly spaced timestamps, one at a time, and
// encodes each settled frame. progress is called after every frame. Any
// failure aborts the whole extraction and no frames are returned.
func (e *Extractor) ExtractN(ctx context.Context, src Source, n int, progress ProgressFunc) (Sequence, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: frame count must be at least 1, got %d", ErrInvalidInput, n)
	}

	duration := src.Duration()
	if !validDuration(duration) {
		return nil, fmt.Errorf("%w: unusable duration %v", ErrLoadFailure, duration)
	}

	naturalW, naturalH := src.NaturalSize()
	width, height := CanvasSize(naturalW, naturalH, e.opts.MaxDimension)
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: unusable frame size %dx%d", ErrLoadFailure, naturalW, naturalH)
	}

	e.logger.Info().
		Float64("duration", duration).
		Int("frames", n).
		Int("width", width).
		Int("height", height).
		Msg("extracting frames")

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	encodeOpts := &jpeg.Options{Quality: e.opts.Quality}
	seq := make(Sequence, 0, n)

	for i, t := range SampleTimes(duration, n) {
		if err := e.awaitSeek(ctx, src, t); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		if err := src.Rasterize(canvas); err != nil {
			return nil, fmt.Errorf("frame %d: rasterize: %w", i, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, canvas, encodeOpts); err != nil {
			return nil, fmt.Errorf("frame %d: encode: %w", i, err)
		}

		seq = append(seq, Frame{
			Index:  i,
			Time:   t,
			Width:  width,
			Height: height,
			Data:   buf.Bytes(),
		})

		if progress != nil {
			progress(float64(i+1) / float64(n) * 100)
		}

		e.logger.Debug().
			Int("frame", i).
			Float64("time", t).
			Int("bytes", buf.Len()).
			Msg("frame captured")
	}

	if len(seq) == 0 {
		return nil, ErrEmptyResult
	}

	e.logger.Info().Int("frames", len(seq)).Msg("extraction complete")
	return seq, nil
}

// awaitSeek issues a single seek and blocks until the source signals
// completion, the seek timeout elapses, or ctx is done.
func (e *Extractor) awaitSeek(ctx context.Context, src Source, t float64) error {
	seekCtx := ctx
	if e.opts.SeekTimeout > 0 {
		var cancel context.CancelFunc
		seekCtx, cancel = context.WithTimeout(ctx, e.opts.SeekTimeout)
		defer cancel()
	}

	done := src.Seek(seekCtx, t)

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("seek to %.3fs: %w", t, ErrSeekTimeout)
		}
		return fmt.Errorf("seek to %.3fs: %w", t, err)
	case <-seekCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("seek to %.3fs after %v: %w", t, e.opts.SeekTimeout, ErrSeekTimeout)
	}
}

// ExtractFile opens path with opener, extracts the configured number of
// frames and always releases the source afterwards.
func (e *Extractor) ExtractFile(ctx context.Context, opener Opener, path string, progress ProgressFunc) (Sequence, error) {
	src, err := opener.Open(ctx, path)
	if err != nil {
		if errors.Is(err, ErrLoadFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("failed to release video source")
		}
	}()

	return e.Extract(ctx, src, progress)
}
