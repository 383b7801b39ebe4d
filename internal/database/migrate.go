package database

import (
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// Models lists every table owned by the application, in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCartEntry{},
		&models.Follow{},
		&models.OAuthClient{},
		&models.OAuthToken{},
	}
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("Schema migrations finished")
	return nil
}
