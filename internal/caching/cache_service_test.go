package caching

import (
	"context"
	"testing"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	id := uuid.MustParse("1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed")
	assert.Equal(t, "cardapio:product:1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed", productKey(id))
	assert.Equal(t, "cardapio:image:abc_thumb.png", imageKey("abc_thumb.png"))
}

func TestNoopCacheService_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	cache := NewNoopCacheService()

	assert.NoError(t, cache.SetImage(ctx, "abc.png", []byte{1, 2, 3}, time.Minute))
	data, err := cache.GetImage(ctx, "abc.png")
	assert.NoError(t, err)
	assert.Nil(t, data)

	product := &models.Product{ID: uuid.New(), Name: "Pizza"}
	assert.NoError(t, cache.SetProduct(ctx, product, time.Minute))
	got, err := cache.GetProduct(ctx, product.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, cache.DeleteImage(ctx, "abc.png"))
	assert.NoError(t, cache.DeleteProduct(ctx, product.ID))
	assert.NoError(t, cache.Ping(ctx))
	assert.NoError(t, cache.Close())
}
