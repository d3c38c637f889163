package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var productColumns = []string{"id", "name", "description", "price", "created_at", "updated_at"}

func stringPtr(s string) *string {
	return &s
}

type ProductRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo ProductRepository
	ctx  context.Context
}

func (suite *ProductRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewProductRepo(mock)
	suite.ctx = context.Background()
}

func (suite *ProductRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func (suite *ProductRepoTestSuite) TestCreate_WithImagesInTransaction() {
	product := &models.Product{Name: "Pizza Margherita", Description: stringPtr("Tomato and basil"), Price: 42.5}
	product.Images.AddUploaded(&models.ProductImage{StoredName: "abc.png", ContentType: "image/png", SizeBytes: 100})
	product.Images.AddByURL("https://example.com/pizza.jpg", true)

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), "Pizza Margherita", product.Description, 42.5, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "abc.png", "", "image/png", int64(100), false, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "", "https://example.com/pizza.jpg", "", int64(0), true, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Create(suite.ctx, product)
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, product.ID)
	for _, image := range product.Images {
		assert.Equal(suite.T(), product.ID, image.ProductID)
		assert.NotEqual(suite.T(), uuid.Nil, image.ID)
	}
}

func (suite *ProductRepoTestSuite) TestCreate_RollsBackOnImageFailure() {
	product := &models.Product{Name: "Pizza", Price: 10}
	product.Images.AddUploaded(&models.ProductImage{StoredName: "abc.png", ContentType: "image/png"})

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), "Pizza", product.Description, 10.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO product_images`).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	suite.mock.ExpectRollback()

	err := suite.repo.Create(suite.ctx, product)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "insert product image")
}

func (suite *ProductRepoTestSuite) TestGetByID_LoadsImages() {
	id := uuid.New()
	now := time.Now()
	suite.mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(productColumns).AddRow(id, "Pizza", stringPtr("desc"), 10.0, now, now))
	suite.mock.ExpectQuery(`FROM product_images\s+WHERE product_id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow(uuid.New(), id, "abc.png", "", "image/png", int64(5), false, 0, now))

	product, err := suite.repo.GetByID(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Pizza", product.Name)
	require.Len(suite.T(), product.Images, 1)
	assert.Equal(suite.T(), "abc.png", product.Images[0].StoredName)
}

func (suite *ProductRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.ctx, id)
	assert.True(suite.T(), errors.Is(err, models.ErrProductNotFound))
}

func (suite *ProductRepoTestSuite) TestUpdate_InsertsOnlyNewImages() {
	product := &models.Product{ID: uuid.New(), Name: "Pizza", Price: 12}
	existing := &models.ProductImage{ID: uuid.New(), ProductID: product.ID, StoredName: "old.png", Position: 0}
	product.Images = models.ProductImageSet{existing}
	product.Images.AddUploaded(&models.ProductImage{StoredName: "new.png", ContentType: "image/png", SizeBytes: 7})

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs("Pizza", product.Description, 12.0, pgxmock.AnyArg(), product.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO product_images`).
		WithArgs(pgxmock.AnyArg(), product.ID, "new.png", "", "image/png", int64(7), false, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	require.NoError(suite.T(), suite.repo.Update(suite.ctx, product))
}

func (suite *ProductRepoTestSuite) TestUpdate_NotFound() {
	product := &models.Product{ID: uuid.New(), Name: "Pizza", Price: 12}

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs("Pizza", product.Description, 12.0, pgxmock.AnyArg(), product.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectRollback()

	err := suite.repo.Update(suite.ctx, product)
	assert.True(suite.T(), errors.Is(err, models.ErrProductNotFound))
}

func (suite *ProductRepoTestSuite) TestDelete() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(suite.T(), suite.repo.Delete(suite.ctx, id))
}

func (suite *ProductRepoTestSuite) TestDelete_NotFound() {
	id := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.True(suite.T(), errors.Is(suite.repo.Delete(suite.ctx, id), models.ErrProductNotFound))
}

func (suite *ProductRepoTestSuite) TestList_AttachesImageSets() {
	now := time.Now()
	p1, p2 := uuid.New(), uuid.New()
	suite.mock.ExpectQuery(`FROM products\s+ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows(productColumns).
			AddRow(p1, "Pizza", stringPtr("a"), 10.0, now, now).
			AddRow(p2, "Soda", stringPtr("b"), 3.0, now, now))
	suite.mock.ExpectQuery(`FROM product_images\s+WHERE product_id = ANY\(\$1\)`).
		WithArgs([]uuid.UUID{p1, p2}).
		WillReturnRows(pgxmock.NewRows(imageColumns).
			AddRow(uuid.New(), p1, "a.png", "", "image/png", int64(1), false, 0, now).
			AddRow(uuid.New(), p1, "b.png", "", "image/png", int64(1), true, 1, now))

	products, err := suite.repo.List(suite.ctx, 0, 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), products, 2)
	assert.Len(suite.T(), products[0].Images, 2)
	assert.Equal(suite.T(), "b.png", products[0].PrincipalImage().StoredName)
	assert.Empty(suite.T(), products[1].Images)
}
