package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

func newFavoritesFixture() (FavoritesService, *memFavoriteRepo, *recordingPublisher) {
	products := newMemProductRepo(newCatalogData())
	products.add("Oak Bed", "oak-bed", 899, 1, 1, 1)
	products.add("Armchair", "armchair", 349, 0, 0, 0)
	favs := newMemFavoriteRepo(products)
	pub := &recordingPublisher{}
	svc := NewFavoritesService(logger.NewNop(), &fakeTx{}, favs, products, pub)
	return svc, favs, pub
}

func TestFavoritesAddListRemove(t *testing.T) {
	svc, _, pub := newFavoritesFixture()
	userID := uuid.New()
	ctx := asUser(userID)

	require.NoError(t, svc.Add(ctx, "oak-bed"))
	require.NoError(t, svc.Add(ctx, "armchair"))

	page, err := svc.List(ctx, types.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, []string{"Armchair", "Oak Bed"}, titles(page.Results))
	for _, v := range page.Results {
		assert.True(t, v.IsFavorite)
	}

	require.NoError(t, svc.Remove(ctx, "armchair"))
	page, err = svc.List(ctx, types.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"Oak Bed"}, titles(page.Results))

	require.Len(t, pub.events, 3)
	for _, e := range pub.events {
		assert.Equal(t, EventFavoritesUpdated, e.Event)
		assert.Equal(t, userID, e.UserID)
	}
}

func TestFavoritesAddTwiceConflicts(t *testing.T) {
	svc, _, _ := newFavoritesFixture()
	ctx := asUser(uuid.New())

	require.NoError(t, svc.Add(ctx, "oak-bed"))
	err := svc.Add(ctx, "oak-bed")
	assert.ErrorIs(t, err, errordata.ErrConflict)
}

func TestFavoritesRelikeFlipsExistingRow(t *testing.T) {
	svc, favs, _ := newFavoritesFixture()
	ctx := asUser(uuid.New())

	require.NoError(t, svc.Add(ctx, "oak-bed"))
	require.NoError(t, svc.Remove(ctx, "oak-bed"))
	require.NoError(t, svc.Add(ctx, "oak-bed"))

	assert.Len(t, favs.rows, 1)
	for _, row := range favs.rows {
		assert.True(t, row.IsLiked)
	}
}

func TestFavoritesRemoveNotLiked(t *testing.T) {
	svc, _, _ := newFavoritesFixture()
	ctx := asUser(uuid.New())

	assert.ErrorIs(t, svc.Remove(ctx, "oak-bed"), errordata.ErrNotFound)
	assert.ErrorIs(t, svc.Add(ctx, "no-such-product"), errordata.ErrResourceNotFound)
}

func TestFavoritesClear(t *testing.T) {
	svc, favs, _ := newFavoritesFixture()
	ctx := asUser(uuid.New())
	require.NoError(t, svc.Add(ctx, "oak-bed"))
	require.NoError(t, svc.Add(ctx, "armchair"))

	require.NoError(t, svc.Clear(ctx))

	page, err := svc.List(ctx, types.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
	assert.Len(t, favs.rows, 2)
}

func TestFavoritesRequireUser(t *testing.T) {
	svc, _, _ := newFavoritesFixture()
	assert.ErrorIs(t, svc.Add(context.Background(), "oak-bed"), errordata.ErrUnauthorized)
}
