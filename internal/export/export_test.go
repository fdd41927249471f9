package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/infinizoom/internal/frames"
)

func testSequence(n int) frames.Sequence {
	seq := make(frames.Sequence, n)
	for i := range seq {
		seq[i] = frames.Frame{
			Index:  i,
			Time:   float64(i) * 0.5,
			Width:  80,
			Height: 45,
			Data:   []byte(fmt.Sprintf("jpeg-%d", i)),
		}
	}
	return seq
}

func TestWriteSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(zerolog.Nop(), 2)

	manifest, err := w.WriteSequence(context.Background(), dir, "clip.mp4", testSequence(12))
	require.NoError(t, err)

	require.Len(t, manifest.Frames, 12)
	assert.Equal(t, "clip.mp4", manifest.Source)
	assert.Equal(t, "frame_0011.jpg", manifest.Frames[11].File)

	for i := 0; i < 12; i++ {
		raw, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf(FramePattern, i)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("jpeg-%d", i), string(raw))
	}
	assert.FileExists(t, filepath.Join(dir, ManifestName))
}

func TestReadSequenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(zerolog.Nop(), 0)
	seq := testSequence(5)

	_, err := w.WriteSequence(context.Background(), dir, "", seq)
	require.NoError(t, err)

	loaded, manifest, err := w.ReadSequence(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, seq, loaded)
	assert.Len(t, manifest.Frames, 5)
}

func TestWriteSequenceRejectsEmpty(t *testing.T) {
	_, err := NewWriter(zerolog.Nop(), 1).WriteSequence(context.Background(), t.TempDir(), "", nil)
	assert.ErrorIs(t, err, frames.ErrEmptyResult)
}

func TestWriteSequenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	_, err := NewWriter(zerolog.Nop(), 1).WriteSequence(ctx, dir, "", testSequence(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, ManifestName))
}

func TestReadSequenceMissingFrame(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(zerolog.Nop(), 1)
	_, err := w.WriteSequence(context.Background(), dir, "", testSequence(3))
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "frame_0001.jpg")))

	_, _, err = w.ReadSequence(context.Background(), dir)
	assert.ErrorIs(t, err, frames.ErrLoadFailure)
}

func TestReadSequenceNoManifest(t *testing.T) {
	_, _, err := NewWriter(zerolog.Nop(), 1).ReadSequence(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, frames.ErrLoadFailure)
}

func TestWriteSequenceReplacesLongerExport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(zerolog.Nop(), 2)

	_, err := w.WriteSequence(context.Background(), dir, "long.mp4", testSequence(5))
	require.NoError(t, err)

	unrelated := filepath.Join(dir, "notes.jpg")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0644))

	_, err = w.WriteSequence(context.Background(), dir, "short.mp4", testSequence(2))
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "frame_0000.jpg"),
		filepath.Join(dir, "frame_0001.jpg"),
	}, matches)
	assert.FileExists(t, unrelated)

	seq, manifest, err := w.ReadSequence(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, seq, 2)
	assert.Equal(t, "short.mp4", manifest.Source)
}
