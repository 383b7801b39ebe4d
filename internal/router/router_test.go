package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/auth"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/storage"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testdb"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	t         *testing.T
	db        *gorm.DB
	router    *gin.Engine
	mediaRoot string
}

func newTestApp(t *testing.T) *testApp {
	db := testdb.New(t)
	cfg := &config.Config{
		PageSize:       6,
		StorageBackend: "local",
		MediaRoot:      t.TempDir(),
		MediaURL:       "/media",
		CORSOrigins:    []string{"http://localhost:3000"},
	}

	tokens := auth.NewTokenService(db, services.NewUserService(db), "router-test-secret", "foodgram-test", time.Hour)
	require.NoError(t, tokens.EnsureClient(context.Background()))

	images, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	require.NoError(t, err)

	return &testApp{
		t:         t,
		db:        db,
		router:    New(Deps{Config: cfg, DB: db, Tokens: tokens, Images: images}),
		mediaRoot: cfg.MediaRoot,
	}
}

func (a *testApp) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// register creates an account through the API and logs it in
func (a *testApp) register(username string) (models.UserCreated, string) {
	a.t.Helper()

	w := a.request(http.MethodPost, "/api/users", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "password123",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[models.UserCreated](a.t, w)

	return user, a.login(username+"@example.com", "password123")
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()

	w := a.request(http.MethodPost, "/api/auth/token/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]string](a.t, w)["auth_token"]
}

func (a *testApp) admin() string {
	a.t.Helper()
	require.NoError(a.t, services.NewUserService(a.db).EnsureAdmin(context.Background(), "admin@example.com", "adminpass1"))
	return a.login("admin@example.com", "adminpass1")
}

// catalogue creates tags and ingredients as admin and returns their ids
func (a *testApp) catalogue() (tags map[string]uint, ingredients map[string]uint) {
	a.t.Helper()
	adminToken := a.admin()

	tags = map[string]uint{}
	for i, slug := range []string{"breakfast", "dinner"} {
		w := a.request(http.MethodPost, "/api/tags", adminToken, map[string]string{
			"name": strings.ToUpper(slug[:1]) + slug[1:], "color": fmt.Sprintf("#00000%d", i), "slug": slug,
		})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
		tags[slug] = decode[models.Tag](a.t, w).ID
	}

	ingredients = map[string]uint{}
	for _, item := range [][2]string{{"flour", "g"}, {"sugar", "g"}, {"egg", "pcs"}} {
		w := a.request(http.MethodPost, "/api/ingredients", adminToken, map[string]string{
			"name": item[0], "measurement_unit": item[1],
		})
		require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
		ingredients[item[0]] = decode[models.Ingredient](a.t, w).ID
	}
	return tags, ingredients
}

func recipeBody(name string, tags []uint, ingredients map[uint]int) map[string]interface{} {
	items := []map[string]interface{}{}
	for _, id := range slices.Sorted(maps.Keys(ingredients)) {
		items = append(items, map[string]interface{}{"id": id, "amount": ingredients[id]})
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Mix everything",
		"cooking_time": 20,
		"image":        pngDataURL,
		"tags":         tags,
		"ingredients":  items,
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.request(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", decode[map[string]string](t, w)["database"])

	sqlDB, err := app.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = app.request(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	user, token := app.register("cook")

	w := app.request(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.UserRead](t, w)
	assert.Equal(t, user.ID, me.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = app.request(http.MethodPost, "/api/auth/token/login", "", map[string]string{"email": "cook@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrInvalidCredentials)

	w = app.request(http.MethodPost, "/api/users/set_password", token, map[string]string{
		"current_password": "wrong", "new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.request(http.MethodPost, "/api/users/set_password", token, map[string]string{
		"current_password": "password123", "new_password": "newpassword1",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.request(http.MethodPost, "/api/auth/token/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.request(http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	app.login("cook@example.com", "newpassword1")
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	app.register("cook")

	testCases := []struct {
		name string
		body map[string]string
		code string
	}{
		{"duplicate username", map[string]string{
			"email": "other@example.com", "username": "cook", "first_name": "a", "last_name": "b", "password": "password123",
		}, models.ErrAlreadyExists},
		{"duplicate email", map[string]string{
			"email": "cook@example.com", "username": "other", "first_name": "a", "last_name": "b", "password": "password123",
		}, models.ErrAlreadyExists},
		{"bad username", map[string]string{
			"email": "x@example.com", "username": "no spaces", "first_name": "a", "last_name": "b", "password": "password123",
		}, models.ErrValidationFailed},
		{"missing fields", map[string]string{"email": "y@example.com"}, models.ErrValidationFailed},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w := app.request(http.MethodPost, "/api/users", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[models.APIError](t, w).Code)
		})
	}
}

func TestCatalogueRequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	_, token := app.register("cook")

	w := app.request(http.MethodPost, "/api/tags", token, map[string]string{"name": "Lunch", "color": "#49B64E", "slug": "lunch"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.request(http.MethodPost, "/api/ingredients", "", map[string]string{"name": "salt", "measurement_unit": "g"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tags, _ := app.catalogue()

	w = app.request(http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Tag](t, w), 2)

	w = app.request(http.MethodGet, "/api/tags/breakfast", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tags["breakfast"], decode[models.Tag](t, w).ID)

	w = app.request(http.MethodGet, "/api/ingredients?name=FL", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.Ingredient](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "flour", found[0].Name)
}

func TestRecipeLifecycle(t *testing.T) {
	app := newTestApp(t)
	tags, ingredients := app.catalogue()
	_, authorToken := app.register("author")
	_, readerToken := app.register("reader")

	w := app.request(http.MethodPost, "/api/recipes", authorToken, recipeBody("Cake", []uint{tags["breakfast"]},
		map[uint]int{ingredients["flour"]: 200, ingredients["sugar"]: 50}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cake := decode[models.RecipeRead](t, w)

	assert.Equal(t, "Cake", cake.Name)
	assert.Equal(t, "author", cake.Author.Username)
	assert.Len(t, cake.Ingredients, 2)
	assert.True(t, strings.HasPrefix(cake.Image, "/media/recipes/images/"), cake.Image)
	_, err := os.Stat(filepath.Join(app.mediaRoot, strings.TrimPrefix(cake.Image, "/media/")))
	assert.NoError(t, err)

	w = app.request(http.MethodGet, cake.Image, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.request(http.MethodPost, "/api/recipes", authorToken, recipeBody("Pancakes", []uint{tags["dinner"]},
		map[uint]int{ingredients["flour"]: 100, ingredients["egg"]: 2}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pancakes := decode[models.RecipeRead](t, w)

	t.Run("anonymous list", func(t *testing.T) {
		w := app.request(http.MethodGet, "/api/recipes?limit=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[models.Page[models.RecipeRead]](t, w)

		assert.Equal(t, int64(2), page.Count)
		require.Len(t, page.Results, 1)
		assert.Equal(t, pancakes.ID, page.Results[0].ID)
		require.NotNil(t, page.Next)
		assert.Contains(t, *page.Next, "page=2")
		assert.Nil(t, page.Previous)
	})

	t.Run("tag filter", func(t *testing.T) {
		w := app.request(http.MethodGet, "/api/recipes?tags=breakfast", "", nil)
		page := decode[models.Page[models.RecipeRead]](t, w)
		require.Len(t, page.Results, 1)
		assert.Equal(t, cake.ID, page.Results[0].ID)
	})

	t.Run("favorites", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d/favorite", cake.ID)

		w := app.request(http.MethodPost, path, readerToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		mini := decode[models.RecipeMini](t, w)
		assert.Equal(t, cake.ID, mini.ID)
		assert.Equal(t, 20, mini.CookingTime)

		w = app.request(http.MethodPost, path, readerToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = app.request(http.MethodGet, "/api/recipes?is_favorited=1", readerToken, nil)
		page := decode[models.Page[models.RecipeRead]](t, w)
		require.Len(t, page.Results, 1)
		assert.True(t, page.Results[0].IsFavorited)

		w = app.request(http.MethodDelete, path, readerToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = app.request(http.MethodDelete, path, readerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.request(http.MethodPost, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("shopping list download", func(t *testing.T) {
		for _, id := range []uint{cake.ID, pancakes.ID} {
			w := app.request(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), readerToken, nil)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := app.request(http.MethodGet, fmt.Sprintf("/api/recipes/%d", cake.ID), readerToken, nil)
		assert.True(t, decode[models.RecipeRead](t, w).IsInShoppingCart)

		w = app.request(http.MethodGet, "/api/recipes/download_shopping_cart", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "attachment; filename=shop.txt", w.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

		body := w.Body.String()
		assert.Contains(t, body, "Flour (g) - 300\n")
		assert.Contains(t, body, "Sugar (g) - 50\n")
		assert.Contains(t, body, "Egg (pcs) - 2\n")
		assert.Equal(t, 3, strings.Count(body, "\n"))

		w = app.request(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("only the author may modify", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d", cake.ID)
		update := recipeBody("Cake v2", []uint{tags["dinner"]}, map[uint]int{ingredients["egg"]: 3})
		delete(update, "image")

		w := app.request(http.MethodPatch, path, readerToken, update)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = app.request(http.MethodDelete, path, readerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.request(http.MethodPatch, path, authorToken, update)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[models.RecipeRead](t, w)
		assert.Equal(t, "Cake v2", updated.Name)
		assert.Equal(t, cake.Image, updated.Image)
		require.Len(t, updated.Ingredients, 1)
		assert.Equal(t, 3, updated.Ingredients[0].Amount)
	})

	t.Run("delete cascades", func(t *testing.T) {
		w := app.request(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", cake.ID), authorToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = app.request(http.MethodGet, fmt.Sprintf("/api/recipes/%d", cake.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.request(http.MethodGet, "/api/recipes/download_shopping_cart", readerToken, nil)
		assert.Equal(t, "Flour (g) - 100\nEgg (pcs) - 2\n", w.Body.String())

		_, err := os.Stat(filepath.Join(app.mediaRoot, strings.TrimPrefix(cake.Image, "/media/")))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestRecipeValidation(t *testing.T) {
	app := newTestApp(t)
	tags, ingredients := app.catalogue()
	_, token := app.register("author")

	testCases := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{"zero amount", func(b map[string]interface{}) {
			b["ingredients"] = []map[string]interface{}{{"id": ingredients["flour"], "amount": 0}}
		}},
		{"duplicate ingredient", func(b map[string]interface{}) {
			b["ingredients"] = []map[string]interface{}{
				{"id": ingredients["flour"], "amount": 1}, {"id": ingredients["flour"], "amount": 2},
			}
		}},
		{"unknown tag", func(b map[string]interface{}) { b["tags"] = []uint{999} }},
		{"no tags", func(b map[string]interface{}) { b["tags"] = []uint{} }},
		{"zero cooking time", func(b map[string]interface{}) { b["cooking_time"] = 0 }},
		{"missing image", func(b map[string]interface{}) { delete(b, "image") }},
		{"not an image", func(b map[string]interface{}) { b["image"] = "data:image/png;base64,aGVsbG8gd29ybGQ=" }},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			body := recipeBody("Cake", []uint{tags["breakfast"]}, map[uint]int{ingredients["flour"]: 1})
			tt.mutate(body)

			w := app.request(http.MethodPost, "/api/recipes", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	entries, err := os.ReadDir(filepath.Join(app.mediaRoot, "recipes", "images"))
	if err == nil {
		assert.Empty(t, entries, "rejected recipes must not leave images behind")
	}
}

func TestSubscriptions(t *testing.T) {
	app := newTestApp(t)
	tags, ingredients := app.catalogue()
	chef, chefToken := app.register("chef")
	reader, readerToken := app.register("reader")

	for _, name := range []string{"Soup", "Salad", "Stew"} {
		w := app.request(http.MethodPost, "/api/recipes", chefToken, recipeBody(name, []uint{tags["dinner"]},
			map[uint]int{ingredients["egg"]: 1}))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	path := fmt.Sprintf("/api/users/%d/subscribe", chef.ID)

	w := app.request(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe", reader.ID), readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.request(http.MethodPost, "/api/users/9999/subscribe", readerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.request(http.MethodPost, path+"?recipes_limit=2", readerToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[models.SubscriptionRead](t, w)
	assert.Equal(t, chef.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Len(t, sub.Recipes, 2)
	assert.Equal(t, int64(3), sub.RecipesCount)

	w = app.request(http.MethodPost, path, readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.request(http.MethodGet, "/api/users/subscriptions", readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.Page[models.SubscriptionRead]](t, w)
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Results, 1)
	assert.Len(t, page.Results[0].Recipes, 3)

	w = app.request(http.MethodGet, fmt.Sprintf("/api/users/%d", chef.ID), readerToken, nil)
	assert.True(t, decode[models.UserRead](t, w).IsSubscribed)

	w = app.request(http.MethodGet, "/api/users?limit=1&offset=1", readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[models.Page[models.UserRead]](t, w)
	assert.Equal(t, int64(3), users.Count)
	require.NotNil(t, users.Previous)
	require.NotNil(t, users.Next)

	w = app.request(http.MethodDelete, path, readerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = app.request(http.MethodDelete, path, readerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
