package ffmpeg

import (
	"context"
	"fmt"
	"time"
)

// SequenceOptions configures rendering a numbered image sequence to video
type SequenceOptions struct {
	Pattern       string        // printf-style input, e.g. frames/frame_%04d.jpg
	Output        string        // output video path
	Frames        int           // number of images, used for percentage progress
	FrameInterval time.Duration // display time per image
	FPS           float64       // output frame rate, defaults to 30
	CRF           int
	Preset        string
	ProgressFunc  ProgressFunc
}

// EncodeSequence renders an image sequence into an H.264 clip that plays the
// frames at the given interval, the same pacing as viewer auto-play.
func (e *Executor) EncodeSequence(ctx context.Context, opts SequenceOptions) error {
	if opts.Pattern == "" {
		return fmt.Errorf("input pattern is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive")
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	inputRate := float64(time.Second) / float64(opts.FrameInterval)

	e.logger.Info().
		Str("pattern", opts.Pattern).
		Str("output", opts.Output).
		Int("frames", opts.Frames).
		Dur("interval", opts.FrameInterval).
		Msg("encoding frame sequence")

	filter := NewFilterBuilder().
		EvenSize().
		FPS(fps).
		Format(DefaultPixFmt).
		Build()

	args := []string{
		"-framerate", fmt.Sprintf("%.6f", inputRate),
		"-start_number", "0",
		"-i", opts.Pattern,
		"-vf", filter,
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", preset,
		"-movflags", "+faststart",
		opts.Output,
	}

	// ffmpeg counts output frames; scale to the expected output length
	outputFrames := float64(opts.Frames) * opts.FrameInterval.Seconds() * fps

	runOpts := RunOptions{
		Args: args,
		ProgressHandler: func(p *Progress) {
			if outputFrames > 0 {
				p.Percentage = min(100, float64(p.Frame)/outputFrames*100)
			}
			if opts.ProgressFunc != nil {
				opts.ProgressFunc(p)
			}
		},
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("sequence encoding")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("sequence encoding failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("sequence encoding complete")
	return nil
}
