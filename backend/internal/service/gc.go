package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/poradna-dev/poradna/shared/logger"
	"github.com/poradna-dev/poradna/shared/metrics"
)

// BlobGarbageCollector removes blobs no question or answer refers to.
// Failed submissions clean up after themselves, but crashes, edits that
// replace attachments and deleted questions leave orphans behind.
type BlobGarbageCollector struct {
	storage         GCStorage
	blobs           GCBlobStore
	safetyThreshold time.Duration
	now             func() time.Time

	mu               sync.Mutex
	lastCleanupStats CleanupStats
}

// CleanupStats tracks metrics from the last garbage collection run.
type CleanupStats struct {
	RunAt          time.Time
	BlobsScanned   int
	OrphanedBlobs  int
	BlobsDeleted   int
	BytesReclaimed int64
	DurationMs     int64
	Errors         []string
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// GCStorage lists every attachment URL still referenced.
type GCStorage interface {
	ReferencedURLs(ctx context.Context) ([]string, error)
}

type GCBlobStore interface {
	Walk(ctx context.Context) ([]BlobInfo, error)
	Delete(ctx context.Context, path string) error
}

// NewBlobGarbageCollector creates a collector. Blobs younger than
// safetyThreshold are never deleted, they may belong to an upload whose
// record is not committed yet.
func NewBlobGarbageCollector(storage GCStorage, blobs GCBlobStore, safetyThreshold time.Duration) *BlobGarbageCollector {
	return &BlobGarbageCollector{
		storage:         storage,
		blobs:           blobs,
		safetyThreshold: safetyThreshold,
		now:             time.Now,
	}
}

// StartBackgroundCleanup runs RunCleanup every interval until ctx is done.
func (gc *BlobGarbageCollector) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started blob garbage collector", "interval", interval, "safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.RunCleanup(ctx); err != nil {
					logger.Log.Error("blob gc failed", "error", err)
					continue
				}
				stats := gc.GetLastCleanupStats()
				logger.Log.Info("blob gc completed",
					"scanned", stats.BlobsScanned,
					"orphans", stats.OrphanedBlobs,
					"deleted", stats.BlobsDeleted,
					"bytes_reclaimed", stats.BytesReclaimed,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				logger.Log.Info("blob gc shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single collection cycle.
func (gc *BlobGarbageCollector) RunCleanup(ctx context.Context) error {
	start := gc.now()
	stats := CleanupStats{RunAt: start, Errors: []string{}}

	urls, err := gc.storage.ReferencedURLs(ctx)
	if err != nil {
		return err
	}
	referenced := referencedPaths(urls)

	blobs, err := gc.blobs.Walk(ctx)
	if err != nil {
		return err
	}
	stats.BlobsScanned = len(blobs)

	for _, b := range blobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if start.Sub(b.ModTime) < gc.safetyThreshold {
			continue
		}
		if _, ok := referenced[b.Path]; ok {
			continue
		}

		stats.OrphanedBlobs++
		if err := gc.blobs.Delete(ctx, b.Path); err != nil {
			stats.Errors = append(stats.Errors, "delete error: "+b.Path+": "+err.Error())
			continue
		}
		stats.BlobsDeleted++
		stats.BytesReclaimed += b.Size
	}
	metrics.AddCollectedBlobs(stats.BlobsDeleted)

	stats.DurationMs = gc.now().Sub(start).Milliseconds()
	gc.mu.Lock()
	gc.lastCleanupStats = stats
	gc.mu.Unlock()
	return nil
}

// referencedPaths indexes every slash-separated suffix of each URL path.
// A blob counts as referenced when its object path is one of them, whatever
// public base the URL was resolved against when the record was written.
func referencedPaths(urls []string) map[string]struct{} {
	paths := make(map[string]struct{}, len(urls)*4)
	for _, raw := range urls {
		p := raw
		if u, err := url.Parse(raw); err == nil {
			p = u.Path
		}
		p = strings.TrimPrefix(p, "/")
		for p != "" {
			paths[p] = struct{}{}
			i := strings.IndexByte(p, '/')
			if i < 0 {
				break
			}
			p = p[i+1:]
		}
	}
	return paths
}

// GetLastCleanupStats returns statistics from the last cleanup run.
func (gc *BlobGarbageCollector) GetLastCleanupStats() CleanupStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lastCleanupStats
}
