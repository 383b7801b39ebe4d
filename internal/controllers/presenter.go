package controllers

import (
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
)

// presenter turns models into response shapes
type presenter struct {
	images storage.ImageStore
}

func (p presenter) user(u *models.User, subscribed bool) models.UserRead {
	return models.UserRead{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func (p presenter) recipe(r *models.Recipe, state services.ViewerState) models.RecipeRead {
	ingredients := make([]models.RecipeIngredientRead, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		ingredients[i] = models.RecipeIngredientRead{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		}
	}

	return models.RecipeRead{
		ID:               r.ID,
		Tags:             nonNil(r.Tags),
		Author:           p.user(&r.Author, state.Subscribed[r.AuthorID]),
		Ingredients:      ingredients,
		IsFavorited:      state.Favorited[r.ID],
		IsInShoppingCart: state.InCart[r.ID],
		Name:             r.Name,
		Image:            p.images.URL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func (p presenter) recipes(rs []models.Recipe, state services.ViewerState) []models.RecipeRead {
	out := make([]models.RecipeRead, len(rs))
	for i := range rs {
		out[i] = p.recipe(&rs[i], state)
	}
	return out
}

func (p presenter) recipeMini(r *models.Recipe) models.RecipeMini {
	return models.RecipeMini{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}
