package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the lossy WebP quality used for every rendition.
const DefaultQuality float32 = 0.8

// Bounds limits the size of a rendition. A zero or negative side is unbounded.
type Bounds struct {
	MaxWidth  int
	MaxHeight int
}

var (
	Unbounded       = Bounds{}
	ThumbnailBounds = Bounds{MaxWidth: 400, MaxHeight: 400}
)

func (b Bounds) String() string {
	if b.MaxWidth <= 0 && b.MaxHeight <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%dx%d", b.MaxWidth, b.MaxHeight)
}

// ScaleFactor returns min(maxW/w, maxH/h, 1). Images are never upscaled.
func ScaleFactor(w, h int, b Bounds) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	s := 1.0
	if b.MaxWidth > 0 {
		s = math.Min(s, float64(b.MaxWidth)/float64(w))
	}
	if b.MaxHeight > 0 {
		s = math.Min(s, float64(b.MaxHeight)/float64(h))
	}
	return s
}

// TargetSize scales w and h by ScaleFactor, rounding to nearest. Neither side
// drops below one pixel.
func TargetSize(w, h int, b Bounds) (int, int) {
	s := ScaleFactor(w, h, b)
	if s == 1 {
		return w, h
	}
	tw := int(math.Round(float64(w) * s))
	th := int(math.Round(float64(h) * s))
	return max(tw, 1), max(th, 1)
}

// ReadError means the source could not be read into memory.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "failed to read image: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// DecodeError means the bytes are not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "failed to decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError means the encoder failed or produced nothing.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "failed to encode image: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

var (
	errEmptySource  = errors.New("empty source")
	errEmptyOutput  = errors.New("encoder produced no data")
	errNoDimensions = errors.New("image has no pixels")
)

// ReadSource loads the whole source into memory.
func ReadSource(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, &ReadError{Err: errEmptySource}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return data, nil
}

// ImageCodec decodes source images and encodes renditions.
type ImageCodec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, quality float32) ([]byte, error)
	ContentType() string
	Extension() string
}

// WebPCodec reads jpeg, png, gif and webp and writes lossy WebP.
type WebPCodec struct{}

func (WebPCodec) Decode(data []byte) (image.Image, error) {
	// applies EXIF orientation; metadata is dropped
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func (WebPCodec) Encode(img image.Image, quality float32) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality*100)
	if err != nil {
		return nil, err
	}
	if _, ok := img.(*image.NRGBA); !ok {
		img = imaging.Clone(img)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (WebPCodec) ContentType() string { return "image/webp" }
func (WebPCodec) Extension() string   { return ".webp" }

// Rendition is one encoded output of the transcoder.
type Rendition struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
	Elapsed     time.Duration
}

type Transcoder struct {
	codec           ImageCodec
	quality         float32
	maxDecodedBytes int64
}

// NewTranscoder creates a transcoder. quality <= 0 means DefaultQuality,
// maxDecodedBytes <= 0 disables the decoded size check.
func NewTranscoder(codec ImageCodec, quality float32, maxDecodedBytes int64) *Transcoder {
	if codec == nil {
		codec = WebPCodec{}
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Transcoder{codec: codec, quality: quality, maxDecodedBytes: maxDecodedBytes}
}

func (t *Transcoder) ContentType() string { return t.codec.ContentType() }
func (t *Transcoder) Extension() string   { return t.codec.Extension() }

// Transcode produces a single rendition fitting b.
func (t *Transcoder) Transcode(data []byte, b Bounds) (*Rendition, error) {
	out, err := t.Renditions(data, b)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Renditions decodes data once and encodes one rendition per bounds, in order.
func (t *Transcoder) Renditions(data []byte, bounds ...Bounds) ([]Rendition, error) {
	if len(bounds) == 0 {
		bounds = []Bounds{Unbounded}
	}
	if err := t.checkDecodedSize(data); err != nil {
		return nil, err
	}

	img, err := t.codec.Decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Err: errNoDimensions}
	}

	out := make([]Rendition, 0, len(bounds))
	for _, b := range bounds {
		start := time.Now()
		tw, th := TargetSize(w, h, b)
		scaled := img
		if tw != w || th != h {
			scaled = imaging.Resize(img, tw, th, imaging.Lanczos)
		}

		encoded, err := t.codec.Encode(scaled, t.quality)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}
		if len(encoded) == 0 {
			return nil, &EncodeError{Err: errEmptyOutput}
		}
		out = append(out, Rendition{
			Data:        encoded,
			Width:       tw,
			Height:      th,
			ContentType: t.codec.ContentType(),
			Elapsed:     time.Since(start),
		})
	}
	return out, nil
}

// checkDecodedSize rejects images whose header promises more pixels than we
// are willing to allocate.
func (t *Transcoder) checkDecodedSize(data []byte) error {
	if len(data) == 0 {
		return &DecodeError{Err: errEmptySource}
	}
	if t.maxDecodedBytes <= 0 {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &DecodeError{Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height)*4 > t.maxDecodedBytes {
		return &DecodeError{Err: fmt.Errorf("image too large: %dx%d pixels, decoded size would exceed %d bytes limit", cfg.Width, cfg.Height, t.maxDecodedBytes)}
	}
	return nil
}
