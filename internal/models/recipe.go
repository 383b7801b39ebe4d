package models

import (
	"time"
)

// Recipe is a published dish
type Recipe struct {
	ID          uint               `gorm:"primaryKey"`
	AuthorID    uint               `gorm:"not null;index"`
	Author      User               `gorm:"constraint:OnDelete:CASCADE;"`
	Name        string             `gorm:"size:200;not null"`
	Image       string             `gorm:"size:255"`
	Text        string             `gorm:"type:text;not null"`
	CookingTime int                `gorm:"not null;check:cooking_time > 0"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE;"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time          `gorm:"index"`
	UpdatedAt   time.Time
}

// RecipeIngredient links a recipe to an ingredient with the amount used
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE;"`
	Amount       int        `gorm:"not null;check:amount > 0"`
}
