package controllers

import (
	"math"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	maxPageSize = 100
	// maxOffset keeps offsets and the next-page arithmetic within int32
	maxOffset = math.MaxInt32 - maxPageSize
)

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(ctx *gin.Context, key string, def int) int {
	value, err := strconv.Atoi(ctx.Query(key))
	if err != nil || value < 1 {
		return def
	}
	return value
}

// pageNumberParams reads ?page=&limit= and returns limit, offset and page
func pageNumberParams(ctx *gin.Context, defaultSize int) (int, int, int) {
	limit := min(queryInt(ctx, "limit", defaultSize), maxPageSize)
	page := min(queryInt(ctx, "page", 1), maxOffset/limit+1)
	return limit, (page - 1) * limit, page
}

// limitOffsetParams reads ?limit=&offset=
func limitOffsetParams(ctx *gin.Context, defaultSize int) (int, int) {
	limit := min(queryInt(ctx, "limit", defaultSize), maxPageSize)
	offset, err := strconv.Atoi(ctx.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, min(offset, maxOffset)
}

func pageNumberPage[T any](ctx *gin.Context, results []T, count int64, limit, page int) models.Page[T] {
	p := models.Page[T]{Count: count, Results: nonNil(results)}
	if int64(page*limit) < count {
		p.Next = pageLink(ctx, map[string]int{"page": page + 1})
	}
	if page > 1 {
		p.Previous = pageLink(ctx, map[string]int{"page": page - 1})
	}
	return p
}

func limitOffsetPage[T any](ctx *gin.Context, results []T, count int64, limit, offset int) models.Page[T] {
	p := models.Page[T]{Count: count, Results: nonNil(results)}
	if int64(offset+limit) < count {
		p.Next = pageLink(ctx, map[string]int{"limit": limit, "offset": offset + limit})
	}
	if offset > 0 {
		p.Previous = pageLink(ctx, map[string]int{"limit": limit, "offset": max(offset-limit, 0)})
	}
	return p
}

// pageLink rebuilds the absolute request URL with some query values replaced
func pageLink(ctx *gin.Context, overrides map[string]int) *string {
	u := *ctx.Request.URL
	query := u.Query()
	for key, value := range overrides {
		query.Set(key, strconv.Itoa(value))
	}
	u.RawQuery = query.Encode()

	scheme := "http"
	if ctx.Request.TLS != nil || ctx.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	link := scheme + "://" + ctx.Request.Host + u.RequestURI()
	return &link
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
