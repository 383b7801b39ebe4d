package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// IngredientController handles the ingredient catalogue
type IngredientController interface {
	ListIngredients(ctx *gin.Context)
	GetIngredient(ctx *gin.Context)
	CreateIngredient(ctx *gin.Context)
	DeleteIngredient(ctx *gin.Context)
}

type ingredientController struct {
	service services.IngredientService
}

func NewIngredientController(service services.IngredientService) IngredientController {
	return &ingredientController{service: service}
}

// ListIngredients godoc
// @Summary Search ingredients
// @Description Case-insensitive prefix search on the ingredient name
// @Tags ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} models.Ingredient
// @Router /api/ingredients [get]
func (c *ingredientController) ListIngredients(ctx *gin.Context) {
	ingredients, err := c.service.SearchIngredients(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ingredients)
}

// GetIngredient godoc
// @Summary Get an ingredient
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} models.Ingredient
// @Failure 404 {object} models.APIError
// @Router /api/ingredients/{id} [get]
func (c *ingredientController) GetIngredient(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	ingredient, err := c.service.GetIngredient(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ingredient)
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Param ingredient body IngredientRequest true "Ingredient"
// @Success 201 {object} models.Ingredient
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security TokenAuth
// @Router /api/ingredients [post]
func (c *ingredientController) CreateIngredient(ctx *gin.Context) {
	var req IngredientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	ingredient := &models.Ingredient{Name: req.Name, MeasurementUnit: req.MeasurementUnit}
	if err := c.service.CreateIngredient(ctx.Request.Context(), ingredient); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, ingredient)
}

// DeleteIngredient godoc
// @Summary Delete an ingredient
// @Tags ingredients
// @Param id path int true "Ingredient ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/ingredients/{id} [delete]
func (c *ingredientController) DeleteIngredient(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteIngredient(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
