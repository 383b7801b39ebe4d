package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// RecipeController handles recipes, favorites and the shopping cart
type RecipeController interface {
	ListRecipes(ctx *gin.Context)
	GetRecipe(ctx *gin.Context)
	CreateRecipe(ctx *gin.Context)
	UpdateRecipe(ctx *gin.Context)
	DeleteRecipe(ctx *gin.Context)
	AddFavorite(ctx *gin.Context)
	RemoveFavorite(ctx *gin.Context)
	AddToShoppingCart(ctx *gin.Context)
	RemoveFromShoppingCart(ctx *gin.Context)
	DownloadShoppingCart(ctx *gin.Context)
}

// RecipeDeps groups what the recipe controller needs
type RecipeDeps struct {
	Recipes      services.RecipeService
	Favorites    services.CollectionService
	Cart         services.CollectionService
	ShoppingList services.ShoppingListService
	Images       storage.ImageStore
	PageSize     int
}

type recipeController struct {
	RecipeDeps
	present presenter
}

func NewRecipeController(deps RecipeDeps) RecipeController {
	return &recipeController{RecipeDeps: deps, present: presenter{images: deps.Images}}
}

// ListRecipes godoc
// @Summary List recipes
// @Description Newest first. Favorite and cart filters apply only to authenticated users.
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param tags query []string false "Tag slugs (any match)" collectionFormat(multi)
// @Param author query int false "Author ID"
// @Param is_favorited query int false "1 to show only favorites"
// @Param is_in_shopping_cart query int false "1 to show only cart recipes"
// @Success 200 {object} models.Page[models.RecipeRead]
// @Router /api/recipes [get]
func (c *recipeController) ListRecipes(ctx *gin.Context) {
	limit, offset, page := pageNumberParams(ctx, c.PageSize)
	viewerID := middleware.CurrentUserID(ctx)

	filter := services.RecipeFilter{TagSlugs: ctx.QueryArray("tags")}
	if author, err := strconv.ParseUint(ctx.Query("author"), 10, 32); err == nil {
		filter.AuthorID = uint(author)
	}
	if viewerID != 0 && ctx.Query("is_favorited") == "1" {
		filter.FavoritedBy = viewerID
	}
	if viewerID != 0 && ctx.Query("is_in_shopping_cart") == "1" {
		filter.InCartOf = viewerID
	}

	recipes, count, err := c.Recipes.ListRecipes(ctx.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	state, err := c.Recipes.ViewerState(ctx.Request.Context(), viewerID, recipes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, pageNumberPage(ctx, c.present.recipes(recipes, state), count, limit, page))
}

// GetRecipe godoc
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} models.RecipeRead
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id} [get]
func (c *recipeController) GetRecipe(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	recipe, err := c.Recipes.GetRecipe(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	c.renderRecipe(ctx, http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Publish a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body RecipeWriteRequest true "Recipe"
// @Success 201 {object} models.RecipeRead
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes [post]
func (c *recipeController) CreateRecipe(ctx *gin.Context) {
	var req RecipeWriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}
	if req.Image == "" {
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Request validation failed",
			map[string]interface{}{"image": "This field is required."}))
		return
	}

	key, err := c.storeImage(ctx, req.Image)
	if err != nil {
		respondError(ctx, err)
		return
	}

	recipe, err := c.Recipes.CreateRecipe(ctx.Request.Context(), middleware.CurrentUserID(ctx), recipeInput(req, key))
	if err != nil {
		c.discardImage(ctx, key)
		respondError(ctx, err)
		return
	}
	c.renderRecipe(ctx, http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Replaces ingredients and tags. The image is kept when omitted.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body RecipeWriteRequest true "Recipe"
// @Success 200 {object} models.RecipeRead
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id} [patch]
func (c *recipeController) UpdateRecipe(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req RecipeWriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	var key string
	if req.Image != "" {
		var err error
		if key, err = c.storeImage(ctx, req.Image); err != nil {
			respondError(ctx, err)
			return
		}
	}

	recipe, replaced, err := c.Recipes.UpdateRecipe(ctx.Request.Context(), middleware.CurrentUser(ctx), id, recipeInput(req, key))
	if err != nil {
		c.discardImage(ctx, key)
		respondError(ctx, err)
		return
	}
	c.discardImage(ctx, replaced)
	c.renderRecipe(ctx, http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id} [delete]
func (c *recipeController) DeleteRecipe(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	recipe, err := c.Recipes.DeleteRecipe(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	c.discardImage(ctx, recipe.Image)
	ctx.Status(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add a recipe to favorites
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} models.RecipeMini
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id}/favorite [post]
func (c *recipeController) AddFavorite(ctx *gin.Context) {
	c.addTo(ctx, c.Favorites)
}

// RemoveFavorite godoc
// @Summary Remove a recipe from favorites
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id}/favorite [delete]
func (c *recipeController) RemoveFavorite(ctx *gin.Context) {
	c.removeFrom(ctx, c.Favorites)
}

// AddToShoppingCart godoc
// @Summary Add a recipe to the shopping cart
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} models.RecipeMini
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id}/shopping_cart [post]
func (c *recipeController) AddToShoppingCart(ctx *gin.Context) {
	c.addTo(ctx, c.Cart)
}

// RemoveFromShoppingCart godoc
// @Summary Remove a recipe from the shopping cart
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/{id}/shopping_cart [delete]
func (c *recipeController) RemoveFromShoppingCart(ctx *gin.Context) {
	c.removeFrom(ctx, c.Cart)
}

// DownloadShoppingCart godoc
// @Summary Download the merged shopping list
// @Description One "Name (unit) - amount" line per ingredient of the recipes in the cart
// @Tags recipes
// @Produce plain
// @Success 200 {string} string
// @Failure 401 {object} models.APIError
// @Security TokenAuth
// @Router /api/recipes/download_shopping_cart [get]
func (c *recipeController) DownloadShoppingCart(ctx *gin.Context) {
	items, err := c.ShoppingList.Build(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename=shop.txt")
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", FormatShoppingList(items))
}

func (c *recipeController) addTo(ctx *gin.Context, collection services.CollectionService) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	recipe, err := collection.Add(ctx.Request.Context(), middleware.CurrentUserID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, c.present.recipeMini(recipe))
}

func (c *recipeController) removeFrom(ctx *gin.Context, collection services.CollectionService) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := collection.Remove(ctx.Request.Context(), middleware.CurrentUserID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *recipeController) renderRecipe(ctx *gin.Context, status int, recipe *models.Recipe) {
	state, err := c.Recipes.ViewerState(ctx.Request.Context(), middleware.CurrentUserID(ctx), []models.Recipe{*recipe})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(status, c.present.recipe(recipe, state))
}

// storeImage decodes a data URL image, saves it and returns its storage key
func (c *recipeController) storeImage(ctx *gin.Context, dataURL string) (string, error) {
	img, err := storage.DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	key := storage.NewRecipeImageKey(img.Extension)
	if err := c.Images.Save(ctx.Request.Context(), key, img.Data, img.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// discardImage removes an image that is no longer referenced; failures are only logged
func (c *recipeController) discardImage(ctx *gin.Context, key string) {
	if key == "" {
		return
	}
	if err := c.Images.Delete(ctx.Request.Context(), key); err != nil {
		_ = ctx.Error(err)
	}
}

func recipeInput(req RecipeWriteRequest, imageKey string) services.RecipeInput {
	ingredients := make([]services.IngredientAmount, len(req.Ingredients))
	for i, item := range req.Ingredients {
		ingredients[i] = services.IngredientAmount{ID: item.ID, Amount: item.Amount}
	}
	return services.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       imageKey,
		Ingredients: ingredients,
		Tags:        req.Tags,
	}
}
