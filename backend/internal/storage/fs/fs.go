// Package fs stores attachment blobs on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	internal_errors "github.com/poradna-dev/poradna/backend/internal/errors"
	"github.com/poradna-dev/poradna/backend/internal/service"
)

const tempPrefix = ".tmp-"

type Storage struct {
	rootPath  string
	publicURL string
}

// Ensure Storage implements the service interfaces at compile time.
var (
	_ service.BlobStore   = (*Storage)(nil)
	_ service.GCBlobStore = (*Storage)(nil)
)

// New creates the root directory when missing. publicURL is the base the
// media route is served under, e.g. http://localhost:8080/media.
func New(rootPath, publicURL string) (*Storage, error) {
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}
	if _, err := url.Parse(publicURL); err != nil {
		return nil, fmt.Errorf("invalid public url %q: %w", publicURL, err)
	}
	return &Storage{rootPath: p, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *Storage) Root() string {
	return s.rootPath
}

// Put writes the blob through a temporary file renamed into place, so a
// failed write never leaves a partial blob behind.
func (s *Storage) Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (service.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return service.ObjectRef{}, err
	}
	fullPath, err := s.fullPath(objectPath)
	if err != nil {
		return service.ObjectRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return service.ObjectRef{}, fmt.Errorf("failed to create subdirectories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), tempPrefix+"*")
	if err != nil {
		return service.ObjectRef{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("wrote %d bytes, expected %d", written, size)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return service.ObjectRef{}, fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return service.ObjectRef{}, fmt.Errorf("failed to move file into place: %w", err)
	}

	return service.ObjectRef{Path: cleanObjectPath(objectPath), Size: written}, nil
}

// ResolveURL joins the public base with the escaped object path.
func (s *Storage) ResolveURL(ctx context.Context, ref service.ObjectRef) (string, error) {
	if ref.Path == "" {
		return "", fmt.Errorf("empty object path")
	}
	return url.JoinPath(s.publicURL, cleanObjectPath(ref.Path))
}

// Delete is idempotent: a missing blob is not an error.
func (s *Storage) Delete(ctx context.Context, objectPath string) error {
	fullPath, err := s.fullPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Open returns the blob for serving. Missing blobs yield ErrNotFound.
func (s *Storage) Open(objectPath string) (*os.File, os.FileInfo, error) {
	fullPath, err := s.fullPath(objectPath)
	if err != nil {
		return nil, nil, internal_errors.ErrNotFound
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, internal_errors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
		file.Close()
		return nil, nil, internal_errors.ErrNotFound
	}
	return file, info, nil
}

// Walk lists every stored blob. Temporary files of in-flight writes are skipped.
func (s *Storage) Walk(ctx context.Context) ([]service.BlobInfo, error) {
	var blobs []service.BlobInfo
	err := filepath.WalkDir(s.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(s.rootPath, p)
		if err != nil {
			return err
		}
		blobs = append(blobs, service.BlobInfo{Path: filepath.ToSlash(rel), Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk media root: %w", err)
	}
	return blobs, nil
}

// fullPath maps an object path into the root, rejecting anything that would
// escape it.
func (s *Storage) fullPath(objectPath string) (string, error) {
	clean := cleanObjectPath(objectPath)
	if clean == "" {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return filepath.Join(s.rootPath, filepath.FromSlash(clean)), nil
}

func cleanObjectPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, `\`, "/")), "/")
}

