package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/viewer"
)

func jpegSequence(t *testing.T, n int) frames.Sequence {
	t.Helper()
	seq := make(frames.Sequence, n)
	for i := range seq {
		img := image.NewRGBA(image.Rect(0, 0, 16, 9))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 40)
			img.Pix[p+3] = 0xff
		}
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, img, nil))
		seq[i] = frames.Frame{Index: i, Time: float64(i), Width: 16, Height: 9, Data: buf.Bytes()}
	}
	return seq
}

func newTestViewPanel(t *testing.T) *viewPanel {
	t.Helper()
	v, err := newViewPanel(zerolog.Nop(), time.Hour, func() {})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, viewer.KeyLeft, keyFor(fyne.KeyLeft))
	assert.Equal(t, viewer.KeyRight, keyFor(fyne.KeyRight))
	assert.Equal(t, viewer.KeySpace, keyFor(fyne.KeySpace))
	assert.Equal(t, viewer.KeyReset, keyFor(fyne.KeyR))
	assert.Equal(t, viewer.KeyNone, keyFor(fyne.KeyUp))
}

func TestFrameCacheEvictsOldest(t *testing.T) {
	c, err := newFrameCache(2)
	require.NoError(t, err)
	c.Reset(jpegSequence(t, 4))

	for _, i := range []int{0, 1, 0, 2} {
		_, err := c.Get(i)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.images.Contains(0), "recently used frame stays")
	assert.True(t, c.images.Contains(2))
	assert.False(t, c.images.Contains(1))

	c.Reset(jpegSequence(t, 1))
	assert.Zero(t, c.Len())

	_, err = c.Get(9)
	assert.Error(t, err)
}

func TestFrameCacheDecodes(t *testing.T) {
	c, err := newFrameCache(0)
	require.NoError(t, err)
	c.Reset(jpegSequence(t, 3))

	img, err := c.Get(2)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 9), img.Bounds().Size())

	r, _, _, _ := color.RGBAModel.Convert(img.At(8, 4)).RGBA()
	assert.InDelta(t, 80, r>>8, 6)

	c.Reset(frames.Sequence{{Data: []byte("not a jpeg")}})
	_, err = c.Get(0)
	assert.Error(t, err)
}

func TestZoomSurfaceForwardsInput(t *testing.T) {
	test.NewTempApp(t)

	state := viewer.NewState(5)
	changes := 0
	s := NewZoomSurface(state, nil, func() { changes++ }, nil)
	s.Resize(fyne.NewSize(400, 300))

	// scrolling down steps forward
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -1)})
	assert.Equal(t, 1, state.Index())

	down := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary}
	down.Position = fyne.NewPos(10, 10)
	s.MouseDown(down)
	assert.True(t, state.Dragging())

	move := &desktop.MouseEvent{}
	move.Position = fyne.NewPos(30, 25)
	s.MouseMoved(move)
	assert.Equal(t, viewer.Point{X: 20, Y: 15}, state.Pan())

	s.MouseOut()
	assert.False(t, state.Dragging())

	secondary := &desktop.MouseEvent{Button: desktop.MouseButtonSecondary}
	s.MouseDown(secondary)
	assert.False(t, state.Dragging())

	assert.Equal(t, 4, changes)
}

func TestViewPanelFollowsState(t *testing.T) {
	test.NewTempApp(t)

	v := newTestViewPanel(t)

	assert.True(t, v.position.Disabled())
	assert.Equal(t, "No frames", v.info.Text)

	v.SetSequence(jpegSequence(t, 3))
	assert.False(t, v.position.Disabled())
	assert.Equal(t, 2.0, v.position.Max)

	v.Key(fyne.KeyLeft)
	assert.Equal(t, 2, v.state.Index(), "arrow keys wrap")
	assert.Equal(t, 2.0, v.position.Value)
	assert.Contains(t, v.info.Text, "Frame 3 / 3")

	v.zoom.SetValue(2.5)
	assert.Equal(t, 2.5, v.state.Zoom())

	v.Key(fyne.KeySpace)
	assert.True(t, v.player.Running())
	assert.Equal(t, "Pause", v.play.Text)

	v.Pause()
	assert.False(t, v.player.Running())

	v.Key(fyne.KeyR)
	assert.Equal(t, viewer.Snapshot{Frames: 3, Index: 0, Zoom: 1}, v.state.Snapshot())
	assert.Equal(t, 1.0, v.zoom.Value)

	assert.NotNil(t, v.currentImage())
}

func TestViewPanelReplacesSequence(t *testing.T) {
	test.NewTempApp(t)

	v := newTestViewPanel(t)

	v.SetSequence(jpegSequence(t, 4))
	v.Key(fyne.KeyRight)
	v.Key(fyne.KeySpace)
	require.True(t, v.player.Running())

	v.SetSequence(jpegSequence(t, 1))
	assert.False(t, v.player.Running())
	assert.Equal(t, 0, v.state.Index())
	assert.True(t, v.position.Disabled(), "nothing to scrub with one frame")
}

func TestShortcutsSurviveSliderFocus(t *testing.T) {
	test.NewTempApp(t)

	v := newTestViewPanel(t)
	w := test.NewWindow(v.content)
	defer w.Close()
	w.Resize(fyne.NewSize(800, 600))

	v.SetSequence(jpegSequence(t, 5))
	v.state.SetPosition(4)
	v.refresh()

	for _, slider := range []*keySlider{v.position, v.zoom} {
		test.Tap(slider)

		// whatever ends up focused must still route the viewer shortcuts
		focused := w.Canvas().Focused()
		require.NotNil(t, focused)

		v.state.SetPosition(4)
		focused.TypedKey(&fyne.KeyEvent{Name: fyne.KeyRight})
		assert.Equal(t, 0, v.state.Index(), "Right wraps from the last frame")

		focused.TypedKey(&fyne.KeyEvent{Name: fyne.KeySpace})
		assert.True(t, v.state.AutoPlaying())

		v.state.SetZoom(3)
		focused.TypedKey(&fyne.KeyEvent{Name: fyne.KeyR})
		assert.Equal(t, viewer.Snapshot{Frames: 5, Index: 0, Zoom: 1}, v.state.Snapshot())
	}
}

func TestZoomSurfaceTypedKey(t *testing.T) {
	state := viewer.NewState(3)
	var got []fyne.KeyName
	s := NewZoomSurface(state, nil, nil, func(name fyne.KeyName) bool {
		got = append(got, name)
		return true
	})

	s.TypedKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	s.TypedRune('r')
	assert.Equal(t, []fyne.KeyName{fyne.KeyLeft}, got)
}
