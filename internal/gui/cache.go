package gui

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kikiluvv/infinizoom/internal/frames"
)

const defaultCacheSize = 16

// frameCache keeps the most recently shown frames decoded.
type frameCache struct {
	seq    frames.Sequence
	images *lru.Cache[int, image.Image]
}

func newFrameCache(size int) (*frameCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	images, err := lru.New[int, image.Image](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}
	return &frameCache{images: images}, nil
}

// Reset drops every decoded frame and switches to seq
func (c *frameCache) Reset(seq frames.Sequence) {
	c.seq = seq
	c.images.Purge()
}

// Get returns frame i decoded
func (c *frameCache) Get(i int) (image.Image, error) {
	if img, ok := c.images.Get(i); ok {
		return img, nil
	}

	f, ok := c.seq.At(i)
	if !ok {
		return nil, fmt.Errorf("frame %d out of range", i)
	}

	img, err := jpeg.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", i, err)
	}

	c.images.Add(i, img)
	return img, nil
}

// Len reports how many frames are decoded
func (c *frameCache) Len() int {
	return c.images.Len()
}
