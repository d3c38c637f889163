package repositories

import (
	"context"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductImageRepository interface {
	GetByProductID(ctx context.Context, productID uuid.UUID) (models.ProductImageSet, error)
	Delete(ctx context.Context, productID, id uuid.UUID) error
	SetPrincipal(ctx context.Context, productID, id uuid.UUID) error
	// ReferencedStoredNames returns the subset of names that some image row
	// still references.
	ReferencedStoredNames(ctx context.Context, names []string) (map[string]bool, error)
}

type productImageRepo struct {
	db DBTX
}

func NewProductImageRepo(db DBTX) ProductImageRepository {
	return &productImageRepo{db: db}
}

const insertImageQuery = `
		INSERT INTO product_images (id, product_id, stored_name, source_url, content_type, size_bytes, is_principal, position, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)
	`

const selectImageColumns = `
		SELECT id, product_id, COALESCE(stored_name, ''), COALESCE(source_url, ''), COALESCE(content_type, ''), size_bytes, is_principal, position, created_at
		FROM product_images
	`

// insertImage assigns the image ID and creation time, then inserts the row.
func insertImage(ctx context.Context, db execer, image *models.ProductImage) error {
	if err := image.Validate(); err != nil {
		return err
	}
	image.ID = uuid.New()
	image.CreatedAt = time.Now().UTC()
	_, err := db.Exec(ctx, insertImageQuery,
		image.ID, image.ProductID, image.StoredName, image.SourceURL, image.ContentType,
		image.SizeBytes, image.IsPrincipal, image.Position, image.CreatedAt)
	return err
}

func scanImage(row pgx.Row) (*models.ProductImage, error) {
	image := &models.ProductImage{}
	err := row.Scan(&image.ID, &image.ProductID, &image.StoredName, &image.SourceURL, &image.ContentType,
		&image.SizeBytes, &image.IsPrincipal, &image.Position, &image.CreatedAt)
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *productImageRepo) GetByProductID(ctx context.Context, productID uuid.UUID) (models.ProductImageSet, error) {
	query := selectImageColumns + `
		WHERE product_id = $1
		ORDER BY position ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images models.ProductImageSet
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// getByProductIDs loads the image sets of several products in one query.
func (r *productImageRepo) getByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]models.ProductImageSet, error) {
	sets := make(map[uuid.UUID]models.ProductImageSet, len(productIDs))
	if len(productIDs) == 0 {
		return sets, nil
	}
	query := selectImageColumns + `
		WHERE product_id = ANY($1)
		ORDER BY product_id, position ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		sets[image.ProductID] = append(sets[image.ProductID], image)
	}
	return sets, rows.Err()
}

func (r *productImageRepo) Delete(ctx context.Context, productID, id uuid.UUID) error {
	query := `DELETE FROM product_images WHERE product_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, productID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrImageNotFound
	}
	return nil
}

func (r *productImageRepo) SetPrincipal(ctx context.Context, productID, id uuid.UUID) error {
	query := `
		UPDATE product_images
		SET is_principal = (id = $2)
		WHERE product_id = $1
		AND EXISTS (SELECT 1 FROM product_images WHERE product_id = $1 AND id = $2)
	`
	tag, err := r.db.Exec(ctx, query, productID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrImageNotFound
	}
	return nil
}

func (r *productImageRepo) ReferencedStoredNames(ctx context.Context, names []string) (map[string]bool, error) {
	referenced := make(map[string]bool)
	if len(names) == 0 {
		return referenced, nil
	}
	query := `SELECT stored_name FROM product_images WHERE stored_name = ANY($1)`
	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		referenced[name] = true
	}
	return referenced, rows.Err()
}
