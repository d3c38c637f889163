package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardapio/internal/media"
	"cardapio/internal/metrics"
	"cardapio/internal/models"
	"cardapio/internal/storage"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Default bounding boxes for the two stored variants.
var (
	DefaultMainBounds      = media.Bounds{Width: 1024, Height: 1024}
	DefaultThumbnailBounds = media.Bounds{Width: 200, Height: 200}
)

// ImageService is the ingestion pipeline plus the read and purge operations
// used by the product service and the HTTP layer.
type ImageService interface {
	// Ingest validates, names, transcodes and stores an upload. The returned
	// image has no ID or product yet; IsPrincipal is left to the caller.
	Ingest(ctx context.Context, data []byte, contentType, originalName string) (*models.ProductImage, error)
	// FetchBytes returns the stored bytes of a main or thumbnail file.
	FetchBytes(ctx context.Context, storedName string) ([]byte, error)
	// Purge removes the main file and its thumbnail. It never fails.
	Purge(ctx context.Context, storedName string)
}

// ImageStore is the write side of the file store.
type ImageStore interface {
	EnsureDir() error
	Write(name string, data []byte) error
	Delete(name string)
}

// ImageReader is a cached read side of the file store.
type ImageReader interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Evict(ctx context.Context, name string)
}

// Transcoder resizes and re-encodes image bytes.
type Transcoder interface {
	Transcode(data []byte, bounds media.Bounds, format string) ([]byte, error)
}

type ImageServiceConfig struct {
	MainBounds      media.Bounds
	ThumbnailBounds media.Bounds
}

type imageService struct {
	store      ImageStore
	reader     ImageReader
	transcoder Transcoder
	cfg        ImageServiceConfig
	metrics    *metrics.ImageMetrics
}

func NewImageService(store ImageStore, reader ImageReader, transcoder Transcoder, cfg ImageServiceConfig, m *metrics.ImageMetrics) ImageService {
	if cfg.MainBounds.Width <= 0 || cfg.MainBounds.Height <= 0 {
		cfg.MainBounds = DefaultMainBounds
	}
	if cfg.ThumbnailBounds.Width <= 0 || cfg.ThumbnailBounds.Height <= 0 {
		cfg.ThumbnailBounds = DefaultThumbnailBounds
	}
	return &imageService{
		store:      store,
		reader:     reader,
		transcoder: transcoder,
		cfg:        cfg,
		metrics:    m,
	}
}

func (s *imageService) Ingest(ctx context.Context, data []byte, contentType, originalName string) (*models.ProductImage, error) {
	if err := media.ValidateContentType(contentType); err != nil {
		s.metrics.RecordIngest("rejected", len(data))
		return nil, err
	}

	storedName := media.GenerateName(originalName)
	thumbName := media.ThumbnailName(storedName)
	format := media.OutputFormat(storedName)

	// Both variants decode from data through independent readers, so they can
	// run side by side. Nothing is written unless both succeed.
	var mainBytes, thumbBytes []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		mainBytes, err = s.transcode(data, s.cfg.MainBounds, format, "main")
		return err
	})
	g.Go(func() error {
		var err error
		thumbBytes, err = s.transcode(data, s.cfg.ThumbnailBounds, format, "thumbnail")
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordIngest("invalid_image", len(data))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.metrics.RecordIngest("canceled", len(data))
		return nil, err
	}

	if err := s.store.EnsureDir(); err != nil {
		s.metrics.RecordIngest("io_error", len(data))
		return nil, err
	}
	if err := s.store.Write(storedName, mainBytes); err != nil {
		s.metrics.RecordIngest("io_error", len(data))
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	if err := s.store.Write(thumbName, thumbBytes); err != nil {
		// roll back the main file so a failed ingest leaves nothing behind
		s.store.Delete(storedName)
		s.metrics.RecordIngest("io_error", len(data))
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	s.metrics.RecordIngest("ok", len(data))
	log.Info().
		Str("component", "ingest").
		Str("stored_name", storedName).
		Str("original_name", originalName).
		Str("content_type", contentType).
		Int("size_bytes", len(data)).
		Msg("image ingested")

	return &models.ProductImage{
		StoredName:  storedName,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

func (s *imageService) transcode(data []byte, bounds media.Bounds, format, variant string) ([]byte, error) {
	start := time.Now()
	out, err := s.transcoder.Transcode(data, bounds, format)
	s.metrics.ObserveTranscode(variant, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s variant: %w", variant, err)
	}
	return out, nil
}

func (s *imageService) FetchBytes(ctx context.Context, storedName string) ([]byte, error) {
	data, err := s.reader.Read(ctx, storedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// expected when a read races a purge
			log.Debug().Str("component", "fetch").Str("stored_name", storedName).Msg("image not found")
		}
		return nil, err
	}
	return data, nil
}

func (s *imageService) Purge(ctx context.Context, storedName string) {
	if storedName == "" {
		return
	}
	thumbName := media.ThumbnailName(storedName)

	s.store.Delete(storedName)
	s.store.Delete(thumbName)
	s.reader.Evict(ctx, storedName)
	s.reader.Evict(ctx, thumbName)

	s.metrics.RecordPurge()
	log.Info().Str("component", "purge").Str("stored_name", storedName).Msg("image purged")
}
