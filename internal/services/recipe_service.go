package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// IngredientAmount is one ingredient line of a recipe write
type IngredientAmount struct {
	ID     uint
	Amount int
}

// RecipeInput carries the writable fields of a recipe. Image is a storage key;
// an empty Image on update keeps the current one.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	Ingredients []IngredientAmount
	Tags        []uint
}

// RecipeFilter narrows a recipe listing. Zero values disable a filter.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    uint
	FavoritedBy uint
	InCartOf    uint
}

// ViewerState holds the per-viewer flags rendered with a recipe
type ViewerState struct {
	Favorited  map[uint]bool
	InCart     map[uint]bool
	Subscribed map[uint]bool
}

type RecipeService interface {
	CreateRecipe(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error)
	// UpdateRecipe returns the updated recipe and the image key it replaced, if any
	UpdateRecipe(ctx context.Context, actor *models.User, id uint, in RecipeInput) (*models.Recipe, string, error)
	// DeleteRecipe returns the deleted recipe so callers can release its image
	DeleteRecipe(ctx context.Context, actor *models.User, id uint) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uint) (*models.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter, limit, offset int) ([]models.Recipe, int64, error)
	// RecipesByAuthor returns up to limit recipes of an author (all when limit < 0) and their total count
	RecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, int64, error)
	ViewerState(ctx context.Context, viewerID uint, recipes []models.Recipe) (ViewerState, error)
}

type recipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) RecipeService {
	return &recipeService{db: db}
}

func validateRecipeInput(in RecipeInput, create bool) error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return invalid("name", "this field is required")
	case len([]rune(name)) > 200:
		return invalid("name", "ensure this field has no more than 200 characters")
	case strings.TrimSpace(in.Text) == "":
		return invalid("text", "this field is required")
	case in.CookingTime < 1:
		return invalid("cooking_time", "ensure this value is greater than or equal to 1")
	case create && in.Image == "":
		return invalid("image", "this field is required")
	case len(in.Ingredients) == 0:
		return invalid("ingredients", "at least one ingredient is required")
	case len(in.Tags) == 0:
		return invalid("tags", "at least one tag is required")
	}

	seen := make(map[uint]bool, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if item.Amount < 1 {
			return invalid("ingredients", "amount of ingredient %d must be at least 1", item.ID)
		}
		if seen[item.ID] {
			return invalid("ingredients", "ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true
	}

	seenTags := make(map[uint]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seenTags[id] {
			return invalid("tags", "tag %d is listed more than once", id)
		}
		seenTags[id] = true
	}
	return nil
}

// loadTags resolves tag ids, failing validation on unknown ids
func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, invalid("tags", "unknown tag id")
	}
	return tags, nil
}

// checkIngredients fails validation when any ingredient id is unknown
func checkIngredients(tx *gorm.DB, items []IngredientAmount) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return invalid("ingredients", "unknown ingredient id")
	}
	return nil
}

func writeIngredients(tx *gorm.DB, recipeID uint, items []IngredientAmount) error {
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	return tx.Create(&rows).Error
}

func canModify(actor *models.User, recipe *models.Recipe) bool {
	return actor != nil && (actor.IsAdmin() || actor.ID == recipe.AuthorID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeInput(in, true); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       in.Image,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := loadTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, in.Ingredients); err != nil {
			return err
		}

		recipe.Tags = tags
		if err := tx.Omit("Tags.*").Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return writeIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actor *models.User, id uint, in RecipeInput) (*models.Recipe, string, error) {
	var replaced string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			return translate(err, "recipe")
		}
		if !canModify(actor, &recipe) {
			return ErrForbidden
		}
		if err := validateRecipeInput(in, false); err != nil {
			return err
		}

		tags, err := loadTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, in.Ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         strings.TrimSpace(in.Name),
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.Image != "" && in.Image != recipe.Image {
			replaced = recipe.Image
			updates["image"] = in.Image
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return writeIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, "", err
	}

	recipe, err := s.GetRecipe(ctx, id)
	return recipe, replaced, err
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actor *models.User, id uint) (*models.Recipe, error) {
	var recipe models.Recipe

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, id).Error; err != nil {
			return translate(err, "recipe")
		}
		if !canModify(actor, &recipe) {
			return ErrForbidden
		}

		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		for _, dependent := range []interface{}{
			&models.RecipeIngredient{},
			&models.Favorite{},
			&models.ShoppingCartEntry{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&recipe).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// withDetails preloads everything the read shape renders
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func (s *recipeService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Scopes(withDetails).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "recipe")
	}
	return &recipe, nil
}

func (s *recipeService) filtered(ctx context.Context, filter RecipeFilter) func(*gorm.DB) *gorm.DB {
	base := s.db.WithContext(ctx)
	return func(db *gorm.DB) *gorm.DB {
		if len(filter.TagSlugs) > 0 {
			db = db.Where("recipes.id IN (?)", base.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if filter.FavoritedBy != 0 {
			db = db.Where("recipes.id IN (?)", base.Model(&models.Favorite{}).
				Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
		}
		if filter.InCartOf != 0 {
			db = db.Where("recipes.id IN (?)", base.Model(&models.ShoppingCartEntry{}).
				Select("recipe_id").Where("user_id = ?", filter.InCartOf))
		}
		return db
	}
}

func (s *recipeService) ListRecipes(ctx context.Context, filter RecipeFilter, limit, offset int) ([]models.Recipe, int64, error) {
	scope := s.filtered(ctx, filter)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	err := s.db.WithContext(ctx).
		Scopes(scope, withDetails).
		Order("recipes.created_at DESC, recipes.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

func (s *recipeService) RecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	err := db.Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

func (s *recipeService) ViewerState(ctx context.Context, viewerID uint, recipes []models.Recipe) (ViewerState, error) {
	state := ViewerState{
		Favorited:  map[uint]bool{},
		InCart:     map[uint]bool{},
		Subscribed: map[uint]bool{},
	}
	if viewerID == 0 || len(recipes) == 0 {
		return state, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	db := s.db.WithContext(ctx)
	lookups := []struct {
		model  interface{}
		column string
		ids    []uint
		into   map[uint]bool
	}{
		{&models.Favorite{}, "recipe_id", recipeIDs, state.Favorited},
		{&models.ShoppingCartEntry{}, "recipe_id", recipeIDs, state.InCart},
		{&models.Follow{}, "author_id", authorIDs, state.Subscribed},
	}
	for _, l := range lookups {
		var found []uint
		err := db.Model(l.model).
			Where("user_id = ? AND "+l.column+" IN ?", viewerID, l.ids).
			Pluck(l.column, &found).Error
		if err != nil {
			return state, err
		}
		for _, id := range found {
			l.into[id] = true
		}
	}
	return state, nil
}
