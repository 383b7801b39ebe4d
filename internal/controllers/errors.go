package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/auth"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps service and binding errors onto APIError responses
func respondError(ctx *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &validationErrs):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(
			models.ErrValidationFailed, "Request validation failed", fieldErrors(validationErrs)))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Invalid request body"))
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, err.Error()))
	case errors.Is(err, services.ErrValidation):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
	case errors.Is(err, services.ErrAlreadyExists):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrAlreadyExists, err.Error()))
	case errors.Is(err, services.ErrSelfFollow):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
	case errors.Is(err, services.ErrInvalidPassword):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error(),
			map[string]interface{}{"current_password": err.Error()}))
	case errors.Is(err, auth.ErrInvalidCredentials):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidCredentials, err.Error()))
	case errors.Is(err, storage.ErrInvalidDataURL),
		errors.Is(err, storage.ErrNotAnImage),
		errors.Is(err, storage.ErrImageTooLarge):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error(),
			map[string]interface{}{"image": err.Error()}))
	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden,
			"You do not have permission to perform this action."))
	default:
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Internal server error"))
	}
}

// fieldErrors renders validator errors keyed by JSON field name
func fieldErrors(errs validator.ValidationErrors) map[string]interface{} {
	details := make(map[string]interface{}, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if ns := fe.Namespace(); strings.Count(ns, ".") > 1 {
			field = ns[strings.Index(ns, ".")+1:]
		}
		details[field] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this value is at least " + fe.Param() + "."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "slug":
		return "Enter a valid slug of letters, numbers, underscores or hyphens."
	case "username":
		return "Enter a valid username of letters, digits and @/./+/-/_ only."
	case "hexcolor", "len":
		return "Enter a color in #RRGGBB format."
	default:
		return "Invalid value."
	}
}

// parseID reads a positive numeric path parameter, answering 404 otherwise
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Not found."))
		return 0, false
	}
	return uint(id), true
}
