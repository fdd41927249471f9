package util

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{61*time.Second + 250*time.Millisecond, "00:01:01.250"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04.000"},
		// sub-millisecond remainders round up across unit boundaries
		{59*time.Second + 999700*time.Microsecond, "00:01:00.000"},
		{time.Minute + 59*time.Second + 999700*time.Microsecond, "00:02:00.000"},
		{59*time.Minute + 59*time.Second + 999600*time.Microsecond, "01:00:00.000"},
		{59*time.Second + 999*time.Millisecond, "00:00:59.999"},
		{-time.Second, "00:00:00.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00.0", FormatSeconds(0))
	assert.Equal(t, "00:07.5", FormatSeconds(7.5))
	assert.Equal(t, "02:05.0", FormatSeconds(125))
	assert.Equal(t, "00:00.0", FormatSeconds(-3))
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 30.0, ParseFrameRate("30/1"))
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.001)
	assert.Zero(t, ParseFrameRate("0/0"))
	assert.Zero(t, ParseFrameRate("25"))
	assert.Zero(t, ParseFrameRate("a/b"))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "video/mp4", MediaType("clip.MP4"))
	assert.Equal(t, "video/webm", MediaType("/tmp/x/y.webm"))
	assert.Equal(t, "video/quicktime", MediaType("holiday.mov"))
	assert.Equal(t, "image/png", MediaType("still.png"))
	assert.Empty(t, MediaType("README"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, FileExists(dir))
	require.NoError(t, EnsureDir(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}
