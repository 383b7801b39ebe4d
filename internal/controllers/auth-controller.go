package controllers

import (
	"context"
	"net/http"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/gin-gonic/gin"
)

// TokenIssuer is implemented by auth.TokenService
type TokenIssuer interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

type AuthController struct {
	tokens TokenIssuer
}

func NewAuthController(tokens TokenIssuer) *AuthController {
	return &AuthController{tokens: tokens}
}

// Login godoc
// @Summary Obtain an access token
// @Description Exchange email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.APIError
// @Router /api/auth/token/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	token, err := ac.tokens.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout godoc
// @Summary Revoke the current token
// @Tags auth
// @Success 204
// @Failure 401 {object} models.APIError
// @Security TokenAuth
// @Router /api/auth/token/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.tokens.Logout(c.Request.Context(), c.GetString(middleware.ContextToken)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
