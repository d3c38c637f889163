package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	// Create inserts the product and every image in its set in one transaction.
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// Update saves the product fields and inserts images that have no ID yet.
	Update(ctx context.Context, product *models.Product) error
	// Delete removes the product; its image rows go with it (ON DELETE CASCADE).
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
}

type productRepo struct {
	db     DBTX
	images *productImageRepo
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db, images: &productImageRepo{db: db}}
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	product.ID = uuid.New()
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now

	query := `
		INSERT INTO products (id, name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, query, product.ID, product.Name, product.Description, product.Price, product.CreatedAt, product.UpdatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for _, image := range product.Images {
		image.ProductID = product.ID
		if err := insertImage(ctx, tx, image); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit product: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT id, name, description, price, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, err
	}

	images, err := r.images.GetByProductID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	product.Images = images
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	product.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := tx.Exec(ctx, query, product.Name, product.Description, product.Price, product.UpdatedAt, product.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}

	for _, image := range product.Images {
		if image.ID != uuid.Nil {
			continue
		}
		image.ProductID = product.ID
		if err := insertImage(ctx, tx, image); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit product: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, name, description, price, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	var ids []uuid.UUID
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
		ids = append(ids, product.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	sets, err := r.images.getByProductIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	for _, product := range products {
		product.Images = sets[product.ID]
	}
	return products, nil
}
