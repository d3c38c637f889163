package testhelpers

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"testing"
	"time"

	"cardapio/internal/models"
	"cardapio/pkg/database"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the migrations. The
// test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.Migrate(connString), "apply migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.NewPool(ctx, connString)
	require.NoError(t, err, "connect to test database")

	db := &TestDB{Pool: pool}
	db.Cleanup = func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE product_images, products`)
		pool.Close()
	}
	return db
}

// SetupTestProduct inserts a bare product row and returns its ID.
func SetupTestProduct(t *testing.T, db *TestDB, name string) uuid.UUID {
	t.Helper()

	productID := uuid.New()
	query := `
		INSERT INTO products (id, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	_, err := db.Pool.Exec(context.Background(), query, productID, name, 10.0, time.Now())
	require.NoError(t, err, "create test product")
	return productID
}

// NewUploadedImage returns an unsaved image pointing at storedName.
func NewUploadedImage(storedName string) *models.ProductImage {
	return &models.ProductImage{
		StoredName:  storedName,
		ContentType: "image/jpeg",
		SizeBytes:   1024,
	}
}

// EncodeImage renders a solid w×h image in format.
func EncodeImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}
