package services

import (
	"context"
	"errors"
	"testing"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateUser(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)

	user := &models.User{Email: "cook@example.com", Username: "cook", Password: "password123"}
	require.NoError(t, users.CreateUser(ctx, user))

	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.Password)
	assert.True(t, user.CheckPassword("password123"))

	t.Run("duplicate email", func(t *testing.T) {
		err := users.CreateUser(ctx, &models.User{Email: "cook@example.com", Username: "cook2", Password: "x"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := users.CreateUser(ctx, &models.User{Email: "cook2@example.com", Username: "cook", Password: "x"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := users.GetUserByEmail(ctx, "cook@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = users.GetUserByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListUsers(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)

	for _, name := range []string{"ann", "bob", "cid"} {
		testdb.CreateUser(t, db, name, "password123")
	}

	page, count, err := users.ListUsers(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	require.Len(t, page, 2)
	assert.Equal(t, "bob", page[0].Username)
	assert.Equal(t, "cid", page[1].Username)
}

func TestSetPassword(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)
	user := testdb.CreateUser(t, db, "cook", "password123")

	assert.ErrorIs(t, users.SetPassword(ctx, user.ID, "wrong", "newpassword1"), ErrInvalidPassword)
	assert.ErrorIs(t, users.SetPassword(ctx, user.ID, "password123", "short"), ErrValidation)
	require.NoError(t, users.SetPassword(ctx, user.ID, "password123", "newpassword1"))

	reloaded, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CheckPassword("newpassword1"))
	assert.False(t, reloaded.CheckPassword("password123"))
}

func TestEnsureAdmin(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)

	require.NoError(t, users.EnsureAdmin(ctx, "admin@example.com", "adminpass"))
	admin, err := users.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	// running twice is a no-op
	require.NoError(t, users.EnsureAdmin(ctx, "admin@example.com", "adminpass"))

	cook := testdb.CreateUser(t, db, "cook", "password123")
	require.NoError(t, users.EnsureAdmin(ctx, cook.Email, "ignored"))
	promoted, err := users.GetUserByID(ctx, cook.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
}

func TestEnsureAdminAvoidsTakenUsernames(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)

	testdb.CreateUser(t, db, "boss", "password123")
	testdb.CreateUser(t, db, "boss1", "password123")

	require.NoError(t, users.EnsureAdmin(ctx, "boss@company.test", "adminpass"))
	admin, err := users.GetUserByEmail(ctx, "boss@company.test")
	require.NoError(t, err)
	assert.Equal(t, "boss2", admin.Username)
	assert.True(t, admin.IsAdmin())
}

func TestAdminUsername(t *testing.T) {
	testCases := []struct {
		email    string
		expected string
	}{
		{"chef@example.com", "chef"},
		{"head.chef+ops@example.com", "head.chef+ops"},
		{"!!!@example.com", "admin"},
		{"no-at-sign", "no-at-sign"},
	}

	for _, tt := range testCases {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, adminUsername(tt.email))
		})
	}
}

func TestEnsureAdminReturnsLookupErrors(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	users := NewUserService(db)

	lookupFailure := errors.New("connection lost")
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:fail_queries", func(tx *gorm.DB) {
		_ = tx.AddError(lookupFailure)
	}))

	err := users.EnsureAdmin(ctx, "admin@example.com", "adminpass")
	assert.ErrorIs(t, err, lookupFailure)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Callback().Query().Remove("test:fail_queries"))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "no account may be created when the lookup fails")
}
