package models

import "time"

// Favorite marks a recipe as favorite for a user
type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time `gorm:"index"`
}

// ShoppingCartEntry puts a recipe into a user's shopping cart
type ShoppingCartEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time `gorm:"index"`
}

// Follow subscribes UserID to the recipes of AuthorID
type Follow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_follow_user_author;check:chk_follow_not_self,user_id <> author_id"`
	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_follow_user_author;index"`
	Author    User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}
