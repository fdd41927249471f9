package frames

import "errors"

var (
	// ErrInvalidInput is returned for inputs rejected before any processing,
	// such as a non-video media type or a frame count below one.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLoadFailure is returned when the video cannot be opened or reports
	// an unusable duration.
	ErrLoadFailure = errors.New("video load failed")

	// ErrEmptyResult is returned when sampling finishes without producing a
	// single frame.
	ErrEmptyResult = errors.New("no frames extracted from video")

	// ErrSeekTimeout is returned when the source does not signal seek
	// completion within the configured timeout.
	ErrSeekTimeout = errors.New("seek timed out")
)
