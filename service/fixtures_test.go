package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/model"
	"github.com/stretchr/testify/require"
)

// squareImage 近白底上居中一个深色方块
func squareImage(size, side int, bg, fg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	lo := (size - side) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x >= lo && x < lo+side && y >= lo && y < lo+side {
				img.SetNRGBA(x, y, fg)
			} else {
				img.SetNRGBA(x, y, bg)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img, err := DecodeImage(data)
	require.NoError(t, err)
	return img
}

func grayFrom(w, h int, fill uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = fill
	}
	return g
}

var (
	nearWhite = color.NRGBA{R: 252, G: 253, B: 251, A: 255}
	darkBlue  = color.NRGBA{R: 20, G: 40, B: 120, A: 255}
)

func testMattingConfig() *config.MattingConfig {
	return &config.Default().Matting
}

type stubClassifier struct {
	category model.Category
	calls    atomic.Int32
}

func (s *stubClassifier) Classify(ctx context.Context, data []byte) model.Category {
	s.calls.Add(1)
	return s.category
}

type fakeSegmenter struct {
	out   []byte
	err   error
	calls atomic.Int32
}

func (f *fakeSegmenter) Segment(ctx context.Context, data []byte) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeDescriber struct {
	desc  string
	err   error
	calls atomic.Int32
}

func (f *fakeDescriber) Describe(ctx context.Context, data []byte) (string, error) {
	f.calls.Add(1)
	return f.desc, f.err
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]model.Category
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]model.Category)}
}

func (c *memoryCache) GetCategory(ctx context.Context, md5 string) (model.Category, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	cat, ok := c.items[md5]
	return cat, ok, nil
}

func (c *memoryCache) SetCategory(ctx context.Context, md5 string, category model.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[md5] = category
	return nil
}
