package services

import (
	"context"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// ShoppingListService aggregates the ingredients of a user's shopping cart
type ShoppingListService interface {
	Build(ctx context.Context, userID uint) ([]models.ShoppingListItem, error)
}

type shoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

// Build reads every ingredient line of the recipes in the user's cart and merges them
func (s *shoppingListService) Build(ctx context.Context, userID uint) ([]models.ShoppingListItem, error) {
	var rows []models.ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("shopping_cart_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Order("shopping_cart_entries.id, recipe_ingredients.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return MergeShoppingList(rows), nil
}

// MergeShoppingList sums amounts of rows sharing a name and measurement unit.
// The result keeps the order in which each ingredient was first seen.
func MergeShoppingList(rows []models.ShoppingListItem) []models.ShoppingListItem {
	type key struct{ name, unit string }

	merged := make([]models.ShoppingListItem, 0, len(rows))
	index := make(map[key]int, len(rows))
	for _, row := range rows {
		k := key{row.Name, row.MeasurementUnit}
		if i, ok := index[k]; ok {
			merged[i].Amount += row.Amount
			continue
		}
		index[k] = len(merged)
		merged = append(merged, row)
	}
	return merged
}
