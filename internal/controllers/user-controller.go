package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// UserController handles accounts and subscriptions
type UserController interface {
	ListUsers(ctx *gin.Context)
	Register(ctx *gin.Context)
	GetUser(ctx *gin.Context)
	Me(ctx *gin.Context)
	SetPassword(ctx *gin.Context)
	Subscriptions(ctx *gin.Context)
	Subscribe(ctx *gin.Context)
	Unsubscribe(ctx *gin.Context)
}

type userController struct {
	users    services.UserService
	follows  services.FollowService
	recipes  services.RecipeService
	present  presenter
	pageSize int
}

func NewUserController(users services.UserService, follows services.FollowService, recipes services.RecipeService, images storage.ImageStore, pageSize int) UserController {
	return &userController{
		users:    users,
		follows:  follows,
		recipes:  recipes,
		present:  presenter{images: images},
		pageSize: pageSize,
	}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.UserRead]
// @Router /api/users [get]
func (c *userController) ListUsers(ctx *gin.Context) {
	limit, offset := limitOffsetParams(ctx, c.pageSize)

	users, count, err := c.users.ListUsers(ctx.Request.Context(), limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := c.follows.SubscribedTo(ctx.Request.Context(), middleware.CurrentUserID(ctx), ids)
	if err != nil {
		respondError(ctx, err)
		return
	}

	results := make([]models.UserRead, len(users))
	for i := range users {
		results[i] = c.present.user(&users[i], subscribed[users[i].ID])
	}
	ctx.JSON(http.StatusOK, limitOffsetPage(ctx, results, count, limit, offset))
}

// Register godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "New user"
// @Success 201 {object} models.UserCreated
// @Failure 400 {object} models.APIError
// @Router /api/users [post]
func (c *userController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	user := &models.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if err := c.users.CreateUser(ctx.Request.Context(), user); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, models.UserCreated{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// GetUser godoc
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserRead
// @Failure 404 {object} models.APIError
// @Router /api/users/{id} [get]
func (c *userController) GetUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.users.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	subscribed, err := c.follows.SubscribedTo(ctx.Request.Context(), middleware.CurrentUserID(ctx), []uint{user.ID})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, c.present.user(user, subscribed[user.ID]))
}

// Me godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} models.UserRead
// @Failure 401 {object} models.APIError
// @Security TokenAuth
// @Router /api/users/me [get]
func (c *userController) Me(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.present.user(middleware.CurrentUser(ctx), false))
}

// SetPassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Param passwords body SetPasswordRequest true "Current and new password"
// @Success 204
// @Failure 400 {object} models.APIError
// @Security TokenAuth
// @Router /api/users/set_password [post]
func (c *userController) SetPassword(ctx *gin.Context) {
	var req SetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	err := c.users.SetPassword(ctx.Request.Context(), middleware.CurrentUserID(ctx), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary List followed authors with their recipes
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param recipes_limit query int false "Recipes shown per author"
// @Success 200 {object} models.Page[models.SubscriptionRead]
// @Security TokenAuth
// @Router /api/users/subscriptions [get]
func (c *userController) Subscriptions(ctx *gin.Context) {
	limit, offset := limitOffsetParams(ctx, c.pageSize)

	authors, count, err := c.follows.Subscriptions(ctx.Request.Context(), middleware.CurrentUserID(ctx), limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	results := make([]models.SubscriptionRead, len(authors))
	for i := range authors {
		sub, err := c.subscription(ctx, &authors[i])
		if err != nil {
			respondError(ctx, err)
			return
		}
		results[i] = sub
	}
	ctx.JSON(http.StatusOK, limitOffsetPage(ctx, results, count, limit, offset))
}

// Subscribe godoc
// @Summary Follow an author
// @Tags users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Recipes shown"
// @Success 201 {object} models.SubscriptionRead
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/users/{id}/subscribe [post]
func (c *userController) Subscribe(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	author, err := c.follows.Subscribe(ctx.Request.Context(), middleware.CurrentUserID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	sub, err := c.subscription(ctx, author)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, sub)
}

// Unsubscribe godoc
// @Summary Stop following an author
// @Tags users
// @Param id path int true "Author ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/users/{id}/subscribe [delete]
func (c *userController) Unsubscribe(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.follows.Unsubscribe(ctx.Request.Context(), middleware.CurrentUserID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// subscription renders a followed author with up to recipes_limit of their recipes
func (c *userController) subscription(ctx *gin.Context, author *models.User) (models.SubscriptionRead, error) {
	recipesLimit := queryInt(ctx, "recipes_limit", -1)

	recipes, count, err := c.recipes.RecipesByAuthor(ctx.Request.Context(), author.ID, recipesLimit)
	if err != nil {
		return models.SubscriptionRead{}, err
	}

	minis := make([]models.RecipeMini, len(recipes))
	for i := range recipes {
		minis[i] = c.present.recipeMini(&recipes[i])
	}
	return models.SubscriptionRead{
		UserRead:     c.present.user(author, true),
		Recipes:      minis,
		RecipesCount: count,
	}, nil
}
