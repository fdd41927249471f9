package session

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/viewer"
)

type stubSource struct {
	mu       sync.Mutex
	duration float64
	hang     bool
	seeks    []float64
	closed   bool
}

func (s *stubSource) Duration() float64       { return s.duration }
func (s *stubSource) NaturalSize() (int, int) { return 64, 36 }

func (s *stubSource) Seek(ctx context.Context, t float64) <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks = append(s.seeks, t)

	done := make(chan error, 1)
	if !s.hang {
		done <- nil
	}
	return done
}

func (s *stubSource) Rasterize(dst draw.Image) error {
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	return nil
}

func (s *stubSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type stubOpener struct{ src *stubSource }

func (o stubOpener) Open(ctx context.Context, path string) (frames.Source, error) {
	return o.src, nil
}

func sequence(n int) frames.Sequence {
	seq := make(frames.Sequence, n)
	for i := range seq {
		seq[i] = frames.Frame{Index: i, Data: []byte{0xff, 0xd8}}
	}
	return seq
}

func TestBeginResetsProgress(t *testing.T) {
	s := New(zerolog.Nop(), nil)

	t1 := s.Begin()
	s.Progress(t1, 40)
	require.Equal(t, 40.0, s.Snapshot().Progress)

	t2 := s.Begin()
	assert.Greater(t, t2.Generation, t1.Generation)
	assert.NotEqual(t, t1.ID, t2.ID)

	snap := s.Snapshot()
	assert.Equal(t, 0.0, snap.Progress)
	assert.True(t, snap.Running)
	assert.Equal(t, ViewExtract, snap.View)
}

func TestProgressIsNonDecreasing(t *testing.T) {
	s := New(zerolog.Nop(), nil)
	tk := s.Begin()

	assert.True(t, s.Progress(tk, 10))
	assert.False(t, s.Progress(tk, 5))
	assert.True(t, s.Progress(tk, 250))
	assert.Equal(t, 100.0, s.Snapshot().Progress)
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	s := New(zerolog.Nop(), nil)

	old := s.Begin()
	current := s.Begin()

	assert.False(t, s.Progress(old, 90))
	assert.False(t, s.Complete(old, sequence(3)))
	assert.False(t, s.Fail(old, errors.New("boom")))
	assert.Empty(t, s.Frames())

	assert.True(t, s.Complete(current, sequence(5)))
	assert.Len(t, s.Frames(), 5)
	assert.False(t, s.Complete(current, sequence(2)), "a ticket completes once")
}

func TestCompleteSwitchesToViewer(t *testing.T) {
	var views []View
	s := New(zerolog.Nop(), func(snap Snapshot) { views = append(views, snap.View) })

	tk := s.Begin()
	require.True(t, s.Complete(tk, sequence(4)))

	snap := s.Snapshot()
	assert.Equal(t, ViewViewer, snap.View)
	assert.False(t, snap.Running)
	assert.Equal(t, 100.0, snap.Progress)
	assert.Equal(t, 4, snap.Frames)
	assert.Equal(t, []View{ViewExtract, ViewViewer}, views)
}

func TestFailureKeepsPreviousFrames(t *testing.T) {
	s := New(zerolog.Nop(), nil)
	s.Complete(s.Begin(), sequence(6))

	tk := s.Begin()
	assert.True(t, s.Complete(tk, nil))

	snap := s.Snapshot()
	assert.ErrorIs(t, snap.Err, frames.ErrEmptyResult)
	assert.Equal(t, ViewExtract, snap.View)
	assert.Len(t, s.Frames(), 6)

	assert.True(t, s.SetView(ViewViewer))
	assert.False(t, s.SetView(ViewViewer))
}

func TestViewerNeedsFrames(t *testing.T) {
	s := New(zerolog.Nop(), nil)
	assert.False(t, s.SetView(ViewViewer))
	assert.Equal(t, "extract", s.Snapshot().View.String())
}

func TestReplaceSupersedesRunningExtraction(t *testing.T) {
	s := New(zerolog.Nop(), nil)
	running := s.Begin()

	require.True(t, s.Replace(sequence(3)))
	assert.False(t, s.Complete(running, sequence(9)))
	assert.Len(t, s.Frames(), 3)
	assert.Equal(t, ViewViewer, s.Snapshot().View)

	assert.False(t, s.Replace(nil))
	assert.Len(t, s.Frames(), 3)
}

func TestRunExtractsAndBrowses(t *testing.T) {
	src := &stubSource{duration: 10}
	ex := frames.NewExtractor(zerolog.Nop(), frames.Options{FrameCount: 10})

	var progress []float64
	s := New(zerolog.Nop(), func(snap Snapshot) {
		if snap.Running {
			progress = append(progress, snap.Progress)
		}
	})

	seq, err := s.Run(context.Background(), ex, stubOpener{src: src}, "synthetic.mp4")
	require.NoError(t, err)

	assert.Len(t, seq, 10)
	assert.InDeltaSlice(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, src.seeks, 1e-9)
	assert.True(t, src.closed)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100.0, progress[len(progress)-1])
	assert.Equal(t, ViewViewer, s.Snapshot().View)

	v := viewer.NewState(s.Frames().Len())
	for i := 0; i < 3; i++ {
		v.Wheel(1)
	}
	assert.Equal(t, 3, v.Index())

	v.Key(viewer.KeyReset)
	assert.Equal(t, viewer.Snapshot{Frames: 10, Index: 0, Zoom: 1}, v.Snapshot())
}

func TestRunIsSupersededByNewerExtraction(t *testing.T) {
	hanging := &stubSource{duration: 10, hang: true}
	ex := frames.NewExtractor(zerolog.Nop(), frames.Options{FrameCount: 5, SeekTimeout: -1})
	s := New(zerolog.Nop(), nil)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), ex, stubOpener{src: hanging}, "slow.mp4")
		errc <- err
	}()

	require.Eventually(t, func() bool {
		hanging.mu.Lock()
		defer hanging.mu.Unlock()
		return len(hanging.seeks) > 0
	}, time.Second, time.Millisecond)

	seq, err := s.Run(context.Background(), ex, stubOpener{src: &stubSource{duration: 5}}, "fast.mp4")
	require.NoError(t, err)
	assert.Len(t, seq, 5)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded extraction did not stop")
	}
	assert.Len(t, s.Frames(), 5)
	assert.True(t, hanging.closed)
}
