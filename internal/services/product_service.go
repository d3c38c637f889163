package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardapio/internal/caching"
	"cardapio/internal/models"
	"cardapio/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const productCacheTTL = 15 * time.Minute

// Upload is one file received with a product form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageInput is the image part of a create or update request. PrincipalIndex
// indexes the combined list of non-empty uploads followed by non-blank URLs.
type ImageInput struct {
	Uploads        []Upload
	URLs           []string
	PrincipalIndex *int
}

type ProductService interface {
	Create(ctx context.Context, product *models.Product, input ImageInput) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// Update saves the product fields and appends new images. Existing images
	// are left alone; they are removed one by one through DeleteImage.
	Update(ctx context.Context, product *models.Product, input ImageInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	SetPrincipal(ctx context.Context, productID, imageID uuid.UUID) error
}

type productService struct {
	productRepo      repositories.ProductRepository
	productImageRepo repositories.ProductImageRepository
	imageService     ImageService
	cacheService     caching.CacheService
}

func NewProductService(productRepo repositories.ProductRepository, productImageRepo repositories.ProductImageRepository, imageService ImageService, cacheService caching.CacheService) ProductService {
	return &productService{
		productRepo:      productRepo,
		productImageRepo: productImageRepo,
		imageService:     imageService,
		cacheService:     cacheService,
	}
}

func (s *productService) Create(ctx context.Context, product *models.Product, input ImageInput) error {
	if err := product.Validate(); err != nil {
		return err
	}

	added, err := s.attachImages(ctx, product, input)
	if err != nil {
		return err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.purgeAll(ctx, added)
		return fmt.Errorf("failed to save product: %w", err)
	}

	log.Info().Str("product_id", product.ID.String()).Int("images", len(product.Images)).Msg("product created")
	return nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if cachedProduct, err := s.cacheService.GetProduct(ctx, id); cachedProduct != nil {
		return cachedProduct, nil
	} else if err != nil {
		// cache errors degrade to a miss
		log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache read failed")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetProduct(ctx, product, productCacheTTL); cacheErr != nil {
		log.Warn().Err(cacheErr).Str("product_id", id.String()).Msg("product cache write failed")
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, product *models.Product, input ImageInput) (*models.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	existing.Name = product.Name
	existing.Description = product.Description
	existing.Price = product.Price

	added, err := s.attachImages(ctx, existing, input)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, existing); err != nil {
		s.purgeAll(ctx, added)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// the update is committed, so the cached copy is stale either way
	err = s.promoteNewPrincipal(ctx, existing, added)
	s.invalidate(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// promoteNewPrincipal makes a newly added principal image the only one.
func (s *productService) promoteNewPrincipal(ctx context.Context, product *models.Product, added []*models.ProductImage) error {
	for _, image := range added {
		if !image.IsPrincipal {
			continue
		}
		if err := product.Images.SetPrincipal(image.ID); err != nil {
			return err
		}
		if err := s.productImageRepo.SetPrincipal(ctx, product.ID, image.ID); err != nil {
			return fmt.Errorf("failed to set principal image: %w", err)
		}
		return nil
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	// rows are gone; files follow
	for _, name := range product.Images.StoredNames() {
		s.imageService.Purge(ctx, name)
	}
	s.invalidate(ctx, id)

	log.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *productService) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.productRepo.List(ctx, limit, offset)
}

func (s *productService) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	removed, err := product.Images.Remove(imageID)
	if err != nil {
		return err
	}

	if err := s.productImageRepo.Delete(ctx, productID, imageID); err != nil {
		return err
	}

	if removed.IsUploaded() {
		s.imageService.Purge(ctx, removed.StoredName)
	}
	s.invalidate(ctx, productID)
	return nil
}

func (s *productService) SetPrincipal(ctx context.Context, productID, imageID uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := product.Images.SetPrincipal(imageID); err != nil {
		return err
	}
	if err := s.productImageRepo.SetPrincipal(ctx, productID, imageID); err != nil {
		return err
	}

	s.invalidate(ctx, productID)
	return nil
}

// attachImages ingests the uploads and appends them, then the URL images, to
// product. On an ingest failure everything ingested so far is purged. The
// images added are returned so the caller can purge them if saving fails.
func (s *productService) attachImages(ctx context.Context, product *models.Product, input ImageInput) ([]*models.ProductImage, error) {
	var added []*models.ProductImage

	for _, upload := range input.Uploads {
		if len(upload.Data) == 0 {
			continue
		}
		image, err := s.imageService.Ingest(ctx, upload.Data, upload.ContentType, upload.Filename)
		if err != nil {
			s.purgeAll(ctx, added)
			return nil, err
		}
		product.Images.AddUploaded(image)
		added = append(added, image)
	}

	for _, url := range input.URLs {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		added = append(added, product.Images.AddByURL(url, false))
	}

	// out of range indexes are ignored
	if idx := input.PrincipalIndex; idx != nil && *idx >= 0 && *idx < len(added) {
		added[*idx].IsPrincipal = true
	}
	return added, nil
}

func (s *productService) purgeAll(ctx context.Context, images []*models.ProductImage) {
	for _, image := range images {
		if image.IsUploaded() {
			s.imageService.Purge(ctx, image.StoredName)
		}
	}
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheService.DeleteProduct(ctx, id); err != nil {
		log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache invalidation failed")
	}
}
