package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// CollectionService manages a per-user set of recipes, such as favorites or the shopping cart
type CollectionService interface {
	// Add puts the recipe into the user's collection and returns it
	Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	Remove(ctx context.Context, userID, recipeID uint) error
}

type collectionService[T any] struct {
	db       *gorm.DB
	name     string
	newEntry func(userID, recipeID uint) *T
}

func NewFavoriteService(db *gorm.DB) CollectionService {
	return &collectionService[models.Favorite]{
		db:   db,
		name: "favorites",
		newEntry: func(userID, recipeID uint) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewShoppingCartService(db *gorm.DB) CollectionService {
	return &collectionService[models.ShoppingCartEntry]{
		db:   db,
		name: "shopping cart",
		newEntry: func(userID, recipeID uint) *models.ShoppingCartEntry {
			return &models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (s *collectionService[T]) Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.First(&recipe, recipeID).Error; err != nil {
		return nil, translate(err, "recipe")
	}

	var count int64
	if err := db.Model(new(T)).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("recipe is already in %s: %w", s.name, ErrAlreadyExists)
	}

	if err := db.Create(s.newEntry(userID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("recipe is already in %s: %w", s.name, ErrAlreadyExists)
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *collectionService[T]) Remove(ctx context.Context, userID, recipeID uint) error {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Select("id").First(&recipe, recipeID).Error; err != nil {
		return translate(err, "recipe")
	}

	result := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe is not in %s: %w", s.name, ErrNotFound)
	}
	return nil
}
