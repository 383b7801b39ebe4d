package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeFixture struct {
	db       *gorm.DB
	recipes  RecipeService
	author   *models.User
	other    *models.User
	flour    *models.Ingredient
	sugar    *models.Ingredient
	lunch    *models.Tag
	dinner   *models.Tag
	baseline RecipeInput
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := testdb.New(t)
	f := &recipeFixture{
		db:      db,
		recipes: NewRecipeService(db),
		author:  testdb.CreateUser(t, db, "author", "password123"),
		other:   testdb.CreateUser(t, db, "other", "password123"),
		flour:   testdb.CreateIngredient(t, db, "flour", "g"),
		sugar:   testdb.CreateIngredient(t, db, "sugar", "g"),
		lunch:   testdb.CreateTag(t, db, "Lunch", "#49B64E", "lunch"),
		dinner:  testdb.CreateTag(t, db, "Dinner", "#8775D2", "dinner"),
	}
	f.baseline = RecipeInput{
		Name:        "Cake",
		Text:        "Mix and bake",
		CookingTime: 30,
		Image:       "recipes/images/cake.png",
		Ingredients: []IngredientAmount{{ID: f.flour.ID, Amount: 200}, {ID: f.sugar.ID, Amount: 50}},
		Tags:        []uint{f.lunch.ID},
	}
	return f
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.baseline)
	require.NoError(t, err)

	assert.Equal(t, "Cake", recipe.Name)
	assert.Equal(t, f.author.Username, recipe.Author.Username)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "flour", recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 200, recipe.Ingredients[0].Amount)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(in *RecipeInput)
	}{
		{"empty name", func(in *RecipeInput) { in.Name = " " }},
		{"zero cooking time", func(in *RecipeInput) { in.CookingTime = 0 }},
		{"missing image", func(in *RecipeInput) { in.Image = "" }},
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = nil }},
		{"no tags", func(in *RecipeInput) { in.Tags = nil }},
		{"zero amount", func(in *RecipeInput) { in.Ingredients = []IngredientAmount{{ID: f.flour.ID, Amount: 0}} }},
		{"duplicate ingredient", func(in *RecipeInput) {
			in.Ingredients = []IngredientAmount{{ID: f.flour.ID, Amount: 1}, {ID: f.flour.ID, Amount: 2}}
		}},
		{"unknown ingredient", func(in *RecipeInput) { in.Ingredients = []IngredientAmount{{ID: 9999, Amount: 1}} }},
		{"duplicate tag", func(in *RecipeInput) { in.Tags = []uint{f.lunch.ID, f.lunch.ID} }},
		{"unknown tag", func(in *RecipeInput) { in.Tags = []uint{9999} }},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			in := f.baseline
			tt.mutate(&in)

			_, err := f.recipes.CreateRecipe(ctx, f.author.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.baseline)
	require.NoError(t, err)

	update := f.baseline
	update.Name = "Better cake"
	update.Image = ""
	update.Ingredients = []IngredientAmount{{ID: f.sugar.ID, Amount: 80}}
	update.Tags = []uint{f.dinner.ID}

	t.Run("non-author is forbidden", func(t *testing.T) {
		_, _, err := f.recipes.UpdateRecipe(ctx, f.other, recipe.ID, update)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("author replaces ingredients and tags", func(t *testing.T) {
		updated, replaced, err := f.recipes.UpdateRecipe(ctx, f.author, recipe.ID, update)
		require.NoError(t, err)

		assert.Empty(t, replaced)
		assert.Equal(t, "Better cake", updated.Name)
		assert.Equal(t, "recipes/images/cake.png", updated.Image)
		require.Len(t, updated.Ingredients, 1)
		assert.Equal(t, "sugar", updated.Ingredients[0].Ingredient.Name)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "dinner", updated.Tags[0].Slug)
	})

	t.Run("admin may update and replace the image", func(t *testing.T) {
		admin := &models.User{ID: f.other.ID, Role: models.RoleAdmin}
		update.Image = "recipes/images/new.png"

		updated, replaced, err := f.recipes.UpdateRecipe(ctx, admin, recipe.ID, update)
		require.NoError(t, err)
		assert.Equal(t, "recipes/images/cake.png", replaced)
		assert.Equal(t, "recipes/images/new.png", updated.Image)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, _, err := f.recipes.UpdateRecipe(ctx, f.author, 9999, update)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteRecipeRemovesDependents(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.baseline)
	require.NoError(t, err)

	_, err = NewFavoriteService(f.db).Add(ctx, f.other.ID, recipe.ID)
	require.NoError(t, err)
	_, err = NewShoppingCartService(f.db).Add(ctx, f.other.ID, recipe.ID)
	require.NoError(t, err)

	_, err = f.recipes.DeleteRecipe(ctx, f.other, recipe.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := f.recipes.DeleteRecipe(ctx, f.author, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "recipes/images/cake.png", deleted.Image)

	for _, model := range []interface{}{
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCartEntry{},
	} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}

	var tagLinks int64
	require.NoError(t, f.db.Table("recipe_tags").Count(&tagLinks).Error)
	assert.Zero(t, tagLinks)

	_, err = f.recipes.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	lunch, err := f.recipes.CreateRecipe(ctx, f.author.ID, f.baseline)
	require.NoError(t, err)

	dinnerInput := f.baseline
	dinnerInput.Name = "Stew"
	dinnerInput.Tags = []uint{f.dinner.ID}
	dinner, err := f.recipes.CreateRecipe(ctx, f.other.ID, dinnerInput)
	require.NoError(t, err)

	_, err = NewFavoriteService(f.db).Add(ctx, f.author.ID, dinner.ID)
	require.NoError(t, err)
	_, err = NewShoppingCartService(f.db).Add(ctx, f.author.ID, lunch.ID)
	require.NoError(t, err)

	ids := func(recipes []models.Recipe) []uint {
		out := make([]uint, len(recipes))
		for i, r := range recipes {
			out[i] = r.ID
		}
		return out
	}

	testCases := []struct {
		name     string
		filter   RecipeFilter
		expected []uint
	}{
		{"no filter lists newest first", RecipeFilter{}, []uint{dinner.ID, lunch.ID}},
		{"single tag", RecipeFilter{TagSlugs: []string{"lunch"}}, []uint{lunch.ID}},
		{"tags are OR-ed", RecipeFilter{TagSlugs: []string{"lunch", "dinner"}}, []uint{dinner.ID, lunch.ID}},
		{"unknown tag", RecipeFilter{TagSlugs: []string{"brunch"}}, []uint{}},
		{"author", RecipeFilter{AuthorID: f.other.ID}, []uint{dinner.ID}},
		{"favorited", RecipeFilter{FavoritedBy: f.author.ID}, []uint{dinner.ID}},
		{"in cart", RecipeFilter{InCartOf: f.author.ID}, []uint{lunch.ID}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			recipes, count, err := f.recipes.ListRecipes(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.expected)), count)
			assert.Equal(t, tt.expected, ids(recipes))
		})
	}

	t.Run("pagination", func(t *testing.T) {
		recipes, count, err := f.recipes.ListRecipes(ctx, RecipeFilter{}, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.Equal(t, []uint{lunch.ID}, ids(recipes))
	})

	t.Run("viewer state", func(t *testing.T) {
		require.NoError(t, f.db.Create(&models.Follow{UserID: f.author.ID, AuthorID: f.other.ID}).Error)

		recipes, _, err := f.recipes.ListRecipes(ctx, RecipeFilter{}, 10, 0)
		require.NoError(t, err)

		state, err := f.recipes.ViewerState(ctx, f.author.ID, recipes)
		require.NoError(t, err)
		assert.True(t, state.Favorited[dinner.ID])
		assert.False(t, state.Favorited[lunch.ID])
		assert.True(t, state.InCart[lunch.ID])
		assert.True(t, state.Subscribed[f.other.ID])

		anonymous, err := f.recipes.ViewerState(ctx, 0, recipes)
		require.NoError(t, err)
		assert.Empty(t, anonymous.Favorited)
	})

	t.Run("recipes by author", func(t *testing.T) {
		recipes, count, err := f.recipes.RecipesByAuthor(ctx, f.author.ID, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, []uint{lunch.ID}, ids(recipes))
	})
}
