package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/nirogkart/storefront/internal/domain"
)

func setupTestDB(t *testing.T) CartRepository {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if termErr := mongoContainer.Terminate(context.Background()); termErr != nil {
			t.Logf("failed to terminate container: %s", termErr)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.(*mongoRepository).CreateIndexes(ctx))
	return repo
}

func TestGetCart_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	cart, err := repo.GetCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestAddItem_NewCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	item := domain.CartItem{ProductID: "p1", Name: "Ashwagandha capsules", Price: 100, Quantity: 3}
	require.NoError(t, repo.AddItem(ctx, "user123", item))

	cart, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.False(t, cart.Items[0].AddedAt.IsZero())
}

func TestAddItem_ExistingItem_ReplacesLine(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Price: 100, Quantity: 2}))

	// re-adding the same product replaces quantity and refreshes the price snapshot
	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Price: 120, Quantity: 5}))

	cart, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, float64(120), cart.Items[0].Price)
}

func TestAddItem_SecondProductAppends(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p2", Quantity: 1}))

	cart, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestUpdateItemQuantity(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, repo.UpdateItemQuantity(ctx, "user123", "p1", 10))

	cart, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestUpdateItemQuantity_MissingItem(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Quantity: 2}))

	err := repo.UpdateItemQuantity(ctx, "user123", "nope", 10)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p2", Quantity: 3}))

	require.NoError(t, repo.RemoveItem(ctx, "user123", "p1"))

	cart, err := repo.GetCart(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
}

func TestDeleteCart(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user123", domain.CartItem{ProductID: "p1", Quantity: 2}))
	require.NoError(t, repo.DeleteCart(ctx, "user123"))

	_, err := repo.GetCart(ctx, "user123")
	assert.ErrorIs(t, err, ErrCartNotFound)

	assert.ErrorIs(t, repo.DeleteCart(ctx, "user123"), ErrCartNotFound)
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(10 * time.Millisecond)

	_, err := repo.GetCart(ctx, "user123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
