package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TagController handles the tag catalogue
type TagController interface {
	ListTags(ctx *gin.Context)
	GetTag(ctx *gin.Context)
	CreateTag(ctx *gin.Context)
	UpdateTag(ctx *gin.Context)
	DeleteTag(ctx *gin.Context)
}

type tagController struct {
	service services.TagService
}

func NewTagController(service services.TagService) TagController {
	return &tagController{service: service}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /api/tags [get]
func (c *tagController) ListTags(ctx *gin.Context) {
	tags, err := c.service.ListTags(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get a tag by ID or slug
// @Tags tags
// @Produce json
// @Param id path string true "Tag ID or slug"
// @Success 200 {object} models.Tag
// @Failure 404 {object} models.APIError
// @Router /api/tags/{id} [get]
func (c *tagController) GetTag(ctx *gin.Context) {
	var (
		tag *models.Tag
		err error
	)
	if id, parseErr := strconv.ParseUint(ctx.Param("id"), 10, 32); parseErr == nil {
		tag, err = c.service.GetTag(ctx.Request.Context(), uint(id))
	} else {
		tag, err = c.service.GetTagBySlug(ctx.Request.Context(), ctx.Param("id"))
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tag)
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body TagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security TokenAuth
// @Router /api/tags [post]
func (c *tagController) CreateTag(ctx *gin.Context) {
	var req TagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	tag := &models.Tag{Name: req.Name, Color: req.Color, Slug: req.Slug}
	if err := c.service.CreateTag(ctx.Request.Context(), tag); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, tag)
}

// UpdateTag godoc
// @Summary Update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param tag body TagRequest true "Tag"
// @Success 200 {object} models.Tag
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/tags/{id} [patch]
func (c *tagController) UpdateTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req TagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, err)
		return
	}

	tag := &models.Tag{ID: id, Name: req.Name, Color: req.Color, Slug: req.Slug}
	if err := c.service.UpdateTag(ctx.Request.Context(), tag); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tag)
}

// DeleteTag godoc
// @Summary Delete a tag
// @Tags tags
// @Param id path int true "Tag ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security TokenAuth
// @Router /api/tags/{id} [delete]
func (c *tagController) DeleteTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteTag(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
