package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

type UserService interface {
	// CreateUser hashes the plain password and stores the user
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	SetPassword(ctx context.Context, userID uint, current, next string) error
	// EnsureAdmin creates the admin account, or promotes an existing one
	EnsureAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) CreateUser(ctx context.Context, user *models.User) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user with this email %w", ErrAlreadyExists)
	}
	if err := db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user with this username %w", ErrAlreadyExists)
	}

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := user.HashPassword(); err != nil {
		return fmt.Errorf("password hashing failed: %w", err)
	}
	return translate(db.Create(user).Error, "user")
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := db.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (s *userService) SetPassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return ErrInvalidPassword
	}
	if len(next) < 8 {
		return invalid("new_password", "must be at least 8 characters")
	}

	user.Password = next
	if err := user.HashPassword(); err != nil {
		return fmt.Errorf("password hashing failed: %w", err)
	}
	return s.db.WithContext(ctx).Model(user).Update("password", user.Password).Error
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		return s.db.WithContext(ctx).Model(existing).Update("role", models.RoleAdmin).Error
	case !errors.Is(err, ErrNotFound):
		return err
	}

	username, err := s.freeUsername(ctx, adminUsername(email))
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    email,
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
	}
	return s.CreateUser(ctx, admin)
}

// adminUsername derives a username from the local part of email
func adminUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._+-", r) {
			return r
		}
		return -1
	}, local)
	if name == "" {
		return "admin"
	}
	return name
}

// freeUsername returns base, or base with the first numeric suffix not taken yet
func (s *userService) freeUsername(ctx context.Context, base string) (string, error) {
	db := s.db.WithContext(ctx)
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}
