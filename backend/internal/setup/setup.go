package setup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/poradna-dev/poradna/backend/internal/handler"
	"github.com/poradna-dev/poradna/backend/internal/service"
	"github.com/poradna-dev/poradna/backend/internal/service/utils"
	"github.com/poradna-dev/poradna/backend/internal/storage/fs"
	"github.com/poradna-dev/poradna/backend/internal/storage/minio"
	"github.com/poradna-dev/poradna/backend/internal/storage/pg"
	"github.com/poradna-dev/poradna/shared/config"
	"github.com/poradna-dev/poradna/shared/jwt"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	"github.com/poradna-dev/poradna/shared/text"
)

// blobBackend is what the application needs from a blob store.
type blobBackend interface {
	service.BlobStore
	service.GCBlobStore
	handler.HealthChecker
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	Jwt            jwt.JwtService
	// Media is set for the fs backend only; the router mounts /media then.
	Media handler.MediaOpener
	GC    *service.BlobGarbageCollector
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, media, err := newBlobBackend(ctx, cfg)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	pub := cfg.Public
	transcoder := utils.NewTranscoder(utils.WebPCodec{}, pub.WebPQuality, pub.MaxDecodedImageBytes)
	uploader := service.NewAttachmentUploader(blobs, transcoder, nil, service.AttachmentUploaderConfig{
		FullBounds:         utils.Unbounded,
		ThumbnailBounds:    utils.Bounds{MaxWidth: pub.ThumbnailMaxWidth, MaxHeight: pub.ThumbnailMaxHeight},
		Timeout:            pub.UploadTimeout,
		ParallelRenditions: pub.ParallelRenditions,
		MaxParallelFiles:   pub.MaxParallelFiles,
	})
	renderer := text.New()

	question := service.NewQuestion(storage, uploader, renderer, pub.QuestionsPerPage)
	answer := service.NewAnswer(storage, uploader, renderer)
	category := service.NewCategory(storage)
	user := service.NewUser(storage)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	health := pingAll{storage, blobs}

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        handler.New(question, answer, category, user, health, cfg),
		AuthMiddleware: mw.NewAuth(jwtService, user, pub.SecureCookies),
		Jwt:            jwtService,
		Media:          media,
		GC:             service.NewBlobGarbageCollector(storage, blobs, pub.GCSafetyThreshold),
	}, nil
}

func newBlobBackend(ctx context.Context, cfg *config.Config) (blobBackend, handler.MediaOpener, error) {
	switch cfg.Public.BlobBackend {
	case "fs":
		store, err := fs.New(cfg.Public.MediaRoot, cfg.Public.MediaPublicURL)
		if err != nil {
			return nil, nil, err
		}
		return fsBackend{store}, store, nil
	case "minio":
		store, err := minio.New(ctx, cfg.Private.MinIO, cfg.Public.MediaPublicURL)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.Public.BlobBackend)
	}
}

// fsBackend adds a readiness check to the filesystem store.
type fsBackend struct {
	*fs.Storage
}

func (b fsBackend) Ping(ctx context.Context) error {
	_, err := os.Stat(b.Root())
	return err
}

type pingAll []handler.HealthChecker

func (p pingAll) Ping(ctx context.Context) error {
	var errs []error
	for _, c := range p {
		if err := c.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
