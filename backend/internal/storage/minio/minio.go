// Package minio stores attachment blobs in an S3 compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/poradna-dev/poradna/backend/internal/service"
	"github.com/poradna-dev/poradna/shared/config"
	"github.com/poradna-dev/poradna/shared/logger"
)

type Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

var (
	_ service.BlobStore   = (*Storage)(nil)
	_ service.GCBlobStore = (*Storage)(nil)
)

// New connects to the server and creates the bucket when missing. When
// publicURL is empty objects resolve to scheme://endpoint/bucket/path.
func New(ctx context.Context, cfg config.MinIO, publicURL string) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Log.Info("created bucket", "bucket", cfg.Bucket)
	}

	if publicURL == "" {
		publicURL = defaultPublicURL(cfg)
	}
	return &Storage{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func defaultPublicURL(cfg config.MinIO) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *Storage) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) (service.ObjectRef, error) {
	info, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return service.ObjectRef{}, fmt.Errorf("failed to upload object: %w", err)
	}
	return service.ObjectRef{Path: info.Key, Size: info.Size}, nil
}

func (s *Storage) ResolveURL(ctx context.Context, ref service.ObjectRef) (string, error) {
	if ref.Path == "" {
		return "", fmt.Errorf("empty object path")
	}
	return url.JoinPath(s.publicURL, ref.Path)
}

// Delete is idempotent: S3 reports success for missing keys.
func (s *Storage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *Storage) Walk(ctx context.Context) ([]service.BlobInfo, error) {
	var blobs []service.BlobInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		blobs = append(blobs, service.BlobInfo{Path: obj.Key, Size: obj.Size, ModTime: obj.LastModified})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return blobs, nil
}

// Ping is used by the readiness probe.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
