package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poradna-dev/poradna/backend/internal/service/utils"
	"github.com/poradna-dev/poradna/shared/domain"
	"github.com/poradna-dev/poradna/shared/logger"
	"github.com/poradna-dev/poradna/shared/metrics"
	"golang.org/x/sync/errgroup"
)

// Blob path layout under a prefix.
const (
	OriginalDir  = "original"
	FullWebPDir  = "fullwebp"
	ThumbnailDir = "thumbs"
)

const cleanupTimeout = 30 * time.Second

// ObjectRef identifies a stored blob.
type ObjectRef struct {
	Path string
	Size int64
}

// BlobStore is where attachment renditions end up.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (ObjectRef, error)
	ResolveURL(ctx context.Context, ref ObjectRef) (string, error)
	Delete(ctx context.Context, path string) error
}

// IdGenerator returns a token unique per uploaded file.
type IdGenerator func() string

// ProgressFunc receives byte counts as renditions are written. With parallel
// uploads it is called from several goroutines.
type ProgressFunc func(domain.UploadProgress)

// UploadError is a failed blob store call.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload of %s failed: %v", e.Path, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// AttachmentUploadError names the file whose pipeline failed. Err is a
// ReadError, DecodeError, EncodeError, UploadError or a context error.
type AttachmentUploadError struct {
	Filename string
	Err      error
}

func (e *AttachmentUploadError) Error() string {
	return fmt.Sprintf("attachment %q: %v", e.Filename, e.Err)
}
func (e *AttachmentUploadError) Unwrap() error { return e.Err }

type AttachmentUploaderConfig struct {
	FullBounds      utils.Bounds
	ThumbnailBounds utils.Bounds
	// Timeout bounds the whole pipeline of one file. Zero disables it.
	Timeout            time.Duration
	ParallelRenditions bool
	MaxParallelFiles   int
}

type AttachmentUploader struct {
	store      BlobStore
	transcoder *utils.Transcoder
	newId      IdGenerator
	cfg        AttachmentUploaderConfig
}

func NewAttachmentUploader(store BlobStore, transcoder *utils.Transcoder, newId IdGenerator, cfg AttachmentUploaderConfig) *AttachmentUploader {
	if newId == nil {
		newId = uuid.NewString
	}
	if cfg.MaxParallelFiles <= 0 {
		cfg.MaxParallelFiles = 1
	}
	return &AttachmentUploader{store: store, transcoder: transcoder, newId: newId, cfg: cfg}
}

// one rendition waiting to be written
type blob struct {
	step        string
	path        string
	data        []byte
	contentType string
}

type uploaded struct {
	attachment domain.Attachment
	paths      []string
}

// Upload runs one file through the pipeline and returns its three URLs.
// On failure nothing written for the file is left behind.
func (u *AttachmentUploader) Upload(ctx context.Context, file *domain.PendingFile, prefix string, progress ProgressFunc) (domain.Attachment, error) {
	res, err := u.upload(ctx, 0, file, prefix, progress)
	if err != nil {
		return domain.Attachment{}, err
	}
	return res.attachment, nil
}

// Batch is an uploaded attachment list together with the blob paths needed
// to roll it back.
type Batch struct {
	Attachments domain.Attachments
	Paths       []string
}

// UploadAll uploads files keeping their order. The first failure cancels the
// rest and removes every attachment of the batch already written.
func (u *AttachmentUploader) UploadAll(ctx context.Context, files []*domain.PendingFile, prefix string, progress ProgressFunc) (domain.Attachments, error) {
	batch, err := u.UploadBatch(ctx, files, prefix, progress)
	if err != nil {
		return nil, err
	}
	return batch.Attachments, nil
}

// UploadBatch is UploadAll for callers that may still need to undo the
// uploads, e.g. when persisting the parent record fails.
func (u *AttachmentUploader) UploadBatch(ctx context.Context, files []*domain.PendingFile, prefix string, progress ProgressFunc) (*Batch, error) {
	if len(files) == 0 {
		return &Batch{Attachments: domain.Attachments{}}, nil
	}

	results := make([]*uploaded, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.MaxParallelFiles)
	for i, file := range files {
		g.Go(func() error {
			res, err := u.upload(gctx, i, file, prefix, progress)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var produced []string
		for _, res := range results {
			if res != nil {
				produced = append(produced, res.paths...)
			}
		}
		u.discard(ctx, produced)
		return nil, err
	}

	batch := &Batch{Attachments: make(domain.Attachments, len(files))}
	for i, res := range results {
		batch.Attachments[i] = res.attachment
		batch.Paths = append(batch.Paths, res.paths...)
	}
	return batch, nil
}

// Discard removes blobs of attachments that will not be persisted.
func (u *AttachmentUploader) Discard(ctx context.Context, paths []string) {
	u.discard(ctx, paths)
}

func (u *AttachmentUploader) upload(ctx context.Context, index int, file *domain.PendingFile, prefix string, progress ProgressFunc) (res *uploaded, err error) {
	name := cleanFilename(file.Filename)
	defer func() {
		metrics.ObserveUpload(resultLabel(err))
		if err != nil {
			logger.Log.Warn("attachment upload failed", "filename", name, "index", index, "error", err)
			err = &AttachmentUploadError{Filename: file.Filename, Err: err}
		}
	}()

	if u.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := utils.ReadSource(file.Data)
	if err != nil {
		return nil, err
	}

	// both renditions exist before the first byte is stored
	renditions, err := u.transcoder.Renditions(data, u.cfg.FullBounds, u.cfg.ThumbnailBounds)
	if err != nil {
		return nil, err
	}
	metrics.ObserveTranscode(domain.StepFull, renditions[0].Elapsed)
	metrics.ObserveTranscode(domain.StepThumbnail, renditions[1].Elapsed)

	id := u.newId()
	base := baseName(name)
	ext := u.transcoder.Extension()
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	blobs := []blob{
		{domain.StepOriginal, path.Join(prefix, OriginalDir, id+"_"+name), data, contentType},
		{domain.StepFull, path.Join(prefix, FullWebPDir, id+"_"+base+ext), renditions[0].Data, renditions[0].ContentType},
		{domain.StepThumbnail, path.Join(prefix, ThumbnailDir, id+"_"+base+"_thumb"+ext), renditions[1].Data, renditions[1].ContentType},
	}

	refs := make([]ObjectRef, len(blobs))
	var (
		mu      sync.Mutex
		written []string
	)
	put := func(ctx context.Context, i int) error {
		b := blobs[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		r := &progressReader{r: bytes.NewReader(b.data), total: int64(len(b.data))}
		if progress != nil {
			r.report = func(sent int64) {
				progress(domain.UploadProgress{Filename: name, Index: index, Step: b.step, BytesSent: sent, BytesTotal: r.total})
			}
		}
		ref, err := u.store.Put(ctx, b.path, r, int64(len(b.data)), b.contentType)
		if err != nil {
			return &UploadError{Path: b.path, Err: err}
		}
		mu.Lock()
		written = append(written, b.path)
		mu.Unlock()
		refs[i] = ref
		metrics.AddUploadedBytes(b.step, int64(len(b.data)))
		return nil
	}

	if u.cfg.ParallelRenditions {
		g, gctx := errgroup.WithContext(ctx)
		for i := range blobs {
			g.Go(func() error { return put(gctx, i) })
		}
		err = g.Wait()
	} else {
		for i := range blobs {
			if err = put(ctx, i); err != nil {
				break
			}
		}
	}
	if err != nil {
		u.discard(ctx, written)
		return nil, err
	}

	urls := make([]string, len(refs))
	for i, ref := range refs {
		url, err := u.store.ResolveURL(ctx, ref)
		if err != nil {
			u.discard(ctx, written)
			return nil, &UploadError{Path: ref.Path, Err: err}
		}
		urls[i] = url
	}

	return &uploaded{
		attachment: domain.Attachment{OriginalUrl: urls[0], FullImageUrl: urls[1], ThumbnailUrl: urls[2]},
		paths:      written,
	}, nil
}

// discard deletes blobs best effort, even when ctx is already done.
func (u *AttachmentUploader) discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, p := range paths {
		if err := u.store.Delete(ctx, p); err != nil {
			logger.Log.Error("failed to delete blob of failed upload", "path", p, "error", err)
		}
	}
}

// baseName drops the extension. A trailing dot alone is not an extension,
// so "photo." keeps its dot.
func baseName(name string) string {
	if ext := filepath.Ext(name); len(ext) > 1 {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// cleanFilename keeps the last path element of a client supplied name.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimSpace(strings.ReplaceAll(name, "/", ""))
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	var (
		readErr   *utils.ReadError
		decodeErr *utils.DecodeError
		encodeErr *utils.EncodeError
		uploadErr *UploadError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	case errors.As(err, &readErr):
		return metrics.ResultReadError
	case errors.As(err, &decodeErr):
		return metrics.ResultDecodeError
	case errors.As(err, &encodeErr):
		return metrics.ResultEncodeError
	case errors.As(err, &uploadErr):
		return metrics.ResultUploadError
	}
	return metrics.ResultUploadError
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.report != nil {
			p.report(p.sent)
		}
	}
	return n, err
}
