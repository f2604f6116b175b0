package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/poradna-dev/poradna/backend/internal/service/utils"
	"github.com/poradna-dev/poradna/shared/domain"
	"github.com/stretchr/testify/require"
)

// --- Blob store ---

type MockBlobStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	putFunc     func(ctx context.Context, path string) error
	resolveFunc func(ref ObjectRef) (string, error)
	deleteFunc  func(path string) error
	putCalls    []string
	deleteCalls []string
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *MockBlobStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (ObjectRef, error) {
	m.mu.Lock()
	m.putCalls = append(m.putCalls, path)
	hook := m.putFunc
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, path); err != nil {
			return ObjectRef{}, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectRef{}, err
	}
	if int64(len(data)) != size {
		return ObjectRef{}, fmt.Errorf("size mismatch: got %d, declared %d", len(data), size)
	}

	m.mu.Lock()
	m.objects[path] = data
	m.types[path] = contentType
	m.mu.Unlock()
	return ObjectRef{Path: path, Size: size}, nil
}

func (m *MockBlobStore) ResolveURL(ctx context.Context, ref ObjectRef) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ref)
	}
	return "https://cdn.test/" + ref.Path, nil
}

func (m *MockBlobStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, path)
	if m.deleteFunc != nil {
		if err := m.deleteFunc(path); err != nil {
			return err
		}
	}
	delete(m.objects, path)
	delete(m.types, path)
	return nil
}

func (m *MockBlobStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *MockBlobStore) Object(path string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[path]
}

func (m *MockBlobStore) PutCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.putCalls...)
}

// --- Images ---

// pngCodec stands in for the WebP encoder.
type pngCodec struct{}

func (pngCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func (pngCodec) Encode(img image.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	return buf.Bytes(), err
}

func (pngCodec) ContentType() string { return "image/webp" }
func (pngCodec) Extension() string   { return ".webp" }

func makeJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 4 {
		for x := 0; x < w; x += 4 {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pendingJPEG(t testing.TB, name string, w, h int) *domain.PendingFile {
	data := makeJPEG(t, w, h)
	return &domain.PendingFile{
		Filename:  name,
		SizeBytes: int64(len(data)),
		MimeType:  "image/jpeg",
		Data:      bytes.NewReader(data),
	}
}

func pendingBytes(name string, data []byte) *domain.PendingFile {
	return &domain.PendingFile{
		Filename:  name,
		SizeBytes: int64(len(data)),
		MimeType:  "image/jpeg",
		Data:      bytes.NewReader(data),
	}
}

func sequentialIds() IdGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestUploader(store BlobStore, cfg AttachmentUploaderConfig, ids IdGenerator) *AttachmentUploader {
	if cfg.ThumbnailBounds == (utils.Bounds{}) {
		cfg.ThumbnailBounds = utils.ThumbnailBounds
	}
	return NewAttachmentUploader(store, utils.NewTranscoder(pngCodec{}, 0.8, 0), ids, cfg)
}
