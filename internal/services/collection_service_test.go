package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionServices(t *testing.T) {
	testCases := []struct {
		name  string
		build func(f *recipeFixture) CollectionService
		model interface{}
	}{
		{"favorites", func(f *recipeFixture) CollectionService { return NewFavoriteService(f.db) }, &models.Favorite{}},
		{"shopping cart", func(f *recipeFixture) CollectionService { return NewShoppingCartService(f.db) }, &models.ShoppingCartEntry{}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecipeFixture(t)
			ctx := context.Background()
			svc := tt.build(f)

			recipe, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.baseline)
			require.NoError(t, err)

			added, err := svc.Add(ctx, f.other.ID, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, recipe.ID, added.ID)

			_, err = svc.Add(ctx, f.other.ID, recipe.ID)
			assert.ErrorIs(t, err, ErrAlreadyExists)

			_, err = svc.Add(ctx, f.other.ID, 9999)
			assert.ErrorIs(t, err, ErrNotFound)

			var count int64
			require.NoError(t, f.db.Model(tt.model).Count(&count).Error)
			assert.Equal(t, int64(1), count)

			require.NoError(t, svc.Remove(ctx, f.other.ID, recipe.ID))
			assert.ErrorIs(t, svc.Remove(ctx, f.other.ID, recipe.ID), ErrNotFound)
			assert.ErrorIs(t, svc.Remove(ctx, f.other.ID, 9999), ErrNotFound)
		})
	}
}

func TestFollowService(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	follows := NewFollowService(db)

	reader := testdb.CreateUser(t, db, "reader", "password123")
	chef := testdb.CreateUser(t, db, "chef", "password123")
	baker := testdb.CreateUser(t, db, "baker", "password123")

	t.Run("cannot follow yourself", func(t *testing.T) {
		_, err := follows.Subscribe(ctx, reader.ID, reader.ID)
		assert.ErrorIs(t, err, ErrSelfFollow)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := follows.Subscribe(ctx, reader.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("subscribe once", func(t *testing.T) {
		author, err := follows.Subscribe(ctx, reader.ID, chef.ID)
		require.NoError(t, err)
		assert.Equal(t, "chef", author.Username)

		_, err = follows.Subscribe(ctx, reader.ID, chef.ID)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("subscriptions are listed in subscription order", func(t *testing.T) {
		_, err := follows.Subscribe(ctx, reader.ID, baker.ID)
		require.NoError(t, err)

		authors, count, err := follows.Subscriptions(ctx, reader.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		require.Len(t, authors, 2)
		assert.Equal(t, "chef", authors[0].Username)
		assert.Equal(t, "baker", authors[1].Username)

		subscribed, err := follows.SubscribedTo(ctx, reader.ID, []uint{chef.ID, baker.ID, reader.ID})
		require.NoError(t, err)
		assert.Equal(t, map[uint]bool{chef.ID: true, baker.ID: true}, subscribed)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		require.NoError(t, follows.Unsubscribe(ctx, reader.ID, chef.ID))
		assert.ErrorIs(t, follows.Unsubscribe(ctx, reader.ID, chef.ID), ErrNotFound)
		assert.ErrorIs(t, follows.Unsubscribe(ctx, reader.ID, 9999), ErrNotFound)
	})
}
