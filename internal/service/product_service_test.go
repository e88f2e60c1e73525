package service

import (
	"context"
	"testing"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService(t *testing.T) {
	stores := testutil.NewSQLiteStores(t)
	svc := NewProductService(stores.Products)
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, CreateProductInput{ProductName: " Cycle ", Category: "sports", OwnerID: "o"})
	require.NoError(t, err)
	assert.Equal(t, "Cycle", first.ProductName)
	assert.NotNil(t, first.Bids)
	assert.NotNil(t, first.Asks)

	second, err := svc.CreateProduct(ctx, CreateProductInput{ProductName: "Lamp", OwnerID: "o"})
	require.NoError(t, err)

	t.Run("NameRequired", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, CreateProductInput{ProductName: "  ", OwnerID: "o"})
		requireCode(t, err, models.CodeValidation)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		all, err := svc.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
	})

	t.Run("UpdateByOwner", func(t *testing.T) {
		desc := "barely used"
		p, err := svc.UpdateProduct(ctx, first.ID, "o", models.ProductPatch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, desc, p.Description)
		assert.Equal(t, "Cycle", p.ProductName)
	})

	t.Run("UpdateByStranger", func(t *testing.T) {
		name := "Mine now"
		_, err := svc.UpdateProduct(ctx, first.ID, "x", models.ProductPatch{ProductName: &name})
		requireCode(t, err, models.CodeUnauthorized)
	})

	t.Run("DeleteByStranger", func(t *testing.T) {
		requireCode(t, svc.DeleteProduct(ctx, first.ID, "x"), models.CodeUnauthorized)
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		require.NoError(t, svc.DeleteProduct(ctx, first.ID, "o"))
		_, err := svc.GetProduct(ctx, first.ID)
		requireCode(t, err, models.CodeNotFound)
	})
}
