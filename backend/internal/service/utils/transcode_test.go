package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

// pngCodec keeps tests independent of libwebp while exercising the pipeline.
type pngCodec struct {
	mu        sync.Mutex
	qualities []float32
	encodeErr error
	empty     bool
}

func (c *pngCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func (c *pngCodec) Encode(img image.Image, quality float32) ([]byte, error) {
	c.mu.Lock()
	c.qualities = append(c.qualities, quality)
	c.mu.Unlock()
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	if c.empty {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *pngCodec) ContentType() string { return "image/png" }
func (c *pngCodec) Extension() string   { return ".png" }

func makeJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		bounds Bounds
		want   float64
	}{
		{"landscape to thumbnail", 4000, 3000, ThumbnailBounds, 0.1},
		{"portrait to thumbnail", 3000, 4000, ThumbnailBounds, 0.1},
		{"unbounded keeps size", 200, 200, Unbounded, 1},
		{"never upscales", 300, 100, ThumbnailBounds, 1},
		{"width bound only", 1000, 500, Bounds{MaxWidth: 250}, 0.25},
		{"height bound only", 1000, 500, Bounds{MaxHeight: 100}, 0.2},
		{"exactly on bound", 400, 400, ThumbnailBounds, 1},
		{"zero size", 0, 0, ThumbnailBounds, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScaleFactor(tt.w, tt.h, tt.bounds), 1e-9)
		})
	}
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		bounds       Bounds
		wantW, wantH int
	}{
		{"photo to thumbnail", 4000, 3000, ThumbnailBounds, 400, 300},
		{"small stays", 200, 200, Unbounded, 200, 200},
		{"rounds to nearest", 1001, 333, Bounds{MaxWidth: 500, MaxHeight: 500}, 500, 166},
		{"never below one pixel", 10000, 10, ThumbnailBounds, 400, 1},
		{"extreme strip", 100000, 1, Bounds{MaxWidth: 10, MaxHeight: 10}, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetSize(tt.w, tt.h, tt.bounds)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestBoundsString(t *testing.T) {
	assert.Equal(t, "unbounded", Unbounded.String())
	assert.Equal(t, "400x400", ThumbnailBounds.String())
}

func TestRenditions(t *testing.T) {
	codec := &pngCodec{}
	tr := NewTranscoder(codec, 0, 0)
	src := makeJPEG(t, 1200, 900)

	out, err := tr.Renditions(src, Unbounded, ThumbnailBounds)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 1200, out[0].Width)
	assert.Equal(t, 900, out[0].Height)
	assert.Equal(t, 400, out[1].Width)
	assert.Equal(t, 300, out[1].Height)

	w, h := decodedSize(t, out[1].Data)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	w, h = decodedSize(t, out[0].Data)
	assert.Equal(t, 1200, w)
	assert.Equal(t, 900, h)

	for _, r := range out {
		assert.Equal(t, "image/png", r.ContentType)
	}
	assert.Equal(t, []float32{DefaultQuality, DefaultQuality}, codec.qualities)
}

func TestTranscodeKeepsAspectRatio(t *testing.T) {
	tr := NewTranscoder(&pngCodec{}, 0.8, 0)
	r, err := tr.Transcode(makeJPEG(t, 300, 1200), ThumbnailBounds)
	require.NoError(t, err)

	assert.Equal(t, 100, r.Width)
	assert.Equal(t, 400, r.Height)
}

func TestTranscodeSmallImageUnchanged(t *testing.T) {
	tr := NewTranscoder(&pngCodec{}, 0.8, 0)
	r, err := tr.Transcode(makeJPEG(t, 200, 200), ThumbnailBounds)
	require.NoError(t, err)

	w, h := decodedSize(t, r.Data)
	assert.Equal(t, 200, w)
	assert.Equal(t, 200, h)
}

func TestTranscodeErrors(t *testing.T) {
	t.Run("not an image", func(t *testing.T) {
		tr := NewTranscoder(&pngCodec{}, 0.8, 0)
		_, err := tr.Transcode([]byte("%PDF-1.4 definitely not a picture"), ThumbnailBounds)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("not an image with size check", func(t *testing.T) {
		tr := NewTranscoder(&pngCodec{}, 0.8, 1<<20)
		_, err := tr.Transcode([]byte("garbage"), ThumbnailBounds)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("empty data", func(t *testing.T) {
		tr := NewTranscoder(&pngCodec{}, 0.8, 0)
		_, err := tr.Transcode(nil, ThumbnailBounds)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("truncated jpeg", func(t *testing.T) {
		src := makeJPEG(t, 64, 64)
		tr := NewTranscoder(&pngCodec{}, 0.8, 0)
		_, err := tr.Transcode(src[:len(src)/3], ThumbnailBounds)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("decoded size limit", func(t *testing.T) {
		// 10x10x4 = 400 bytes decoded
		tr := NewTranscoder(&pngCodec{}, 0.8, 100)
		_, err := tr.Transcode(makeJPEG(t, 10, 10), ThumbnailBounds)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Contains(t, err.Error(), "image too large")
	})

	t.Run("encoder failure", func(t *testing.T) {
		boom := errors.New("boom")
		tr := NewTranscoder(&pngCodec{encodeErr: boom}, 0.8, 0)
		_, err := tr.Transcode(makeJPEG(t, 20, 20), Unbounded)
		var encodeErr *EncodeError
		require.ErrorAs(t, err, &encodeErr)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("encoder produced nothing", func(t *testing.T) {
		tr := NewTranscoder(&pngCodec{empty: true}, 0.8, 0)
		_, err := tr.Transcode(makeJPEG(t, 20, 20), Unbounded)
		var encodeErr *EncodeError
		require.ErrorAs(t, err, &encodeErr)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestReadSource(t *testing.T) {
	data, err := ReadSource(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ReadSource(failingReader{})
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = ReadSource(nil)
	require.ErrorAs(t, err, &readErr)
}

func TestWebPCodecRoundTrip(t *testing.T) {
	codec := WebPCodec{}
	assert.Equal(t, "image/webp", codec.ContentType())
	assert.Equal(t, ".webp", codec.Extension())

	tr := NewTranscoder(codec, DefaultQuality, 0)
	out, err := tr.Renditions(makeJPEG(t, 640, 480), Unbounded, ThumbnailBounds)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i, want := range []image.Point{{640, 480}, {400, 300}} {
		assert.True(t, bytes.HasPrefix(out[i].Data, []byte("RIFF")))
		cfg, err := xwebp.DecodeConfig(bytes.NewReader(out[i].Data))
		require.NoError(t, err)
		assert.Equal(t, want.X, cfg.Width)
		assert.Equal(t, want.Y, cfg.Height)
	}

	// webp input is accepted too
	again, err := tr.Transcode(out[0].Data, Bounds{MaxWidth: 320})
	require.NoError(t, err)
	assert.Equal(t, 320, again.Width)
	assert.Equal(t, 240, again.Height)
}
