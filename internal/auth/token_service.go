package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserLookup is the subset of the user service needed to issue and resolve tokens
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenService issues, resolves and revokes access tokens through a go-oauth2 manager
type TokenService struct {
	manager   *manage.Manager
	db        *gorm.DB
	users     UserLookup
	jwtSecret []byte
	clientID  string
}

func NewTokenService(db *gorm.DB, users UserLookup, jwtSecret, clientID string, ttl time.Duration) *TokenService {
	manager := manage.NewDefaultManager()
	manager.SetPasswordTokenCfg(&manage.Config{
		AccessTokenExp:    ttl,
		IsGenerateRefresh: false,
	})

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewJWTAccessGenerate([]byte(jwtSecret), jwt.SigningMethodHS256, users))

	manager.MustTokenStorage(NewGormTokenStore(db), nil)
	manager.MapClientStorage(NewGormClientStore(db))

	return &TokenService{
		manager:   manager,
		db:        db,
		users:     users,
		jwtSecret: []byte(jwtSecret),
		clientID:  clientID,
	}
}

// EnsureClient registers the first-party public client used by the login endpoint
func (s *TokenService) EnsureClient(ctx context.Context) error {
	client := models.OAuthClient{
		ID:     s.clientID,
		Name:   "Foodgram web",
		Public: true,
	}
	return s.db.WithContext(ctx).Where("id = ?", s.clientID).FirstOrCreate(&client).Error
}

// Login checks the email/password pair and issues a new access token
func (s *TokenService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil || !user.CheckPassword(password) {
		return "", ErrInvalidCredentials
	}

	ti, err := s.manager.GenerateAccessToken(ctx, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID: s.clientID,
		UserID:   strconv.FormatUint(uint64(user.ID), 10),
	})
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return ti.GetAccess(), nil
}

// Authenticate resolves a presented access token to its user.
// The token must carry a valid signature and still be present in the store.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	uid, err := s.parseUserID(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ti, err := s.manager.LoadAccessToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if ti.GetUserID() != strconv.FormatUint(uint64(uid), 10) {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return user, nil
}

// Logout revokes the token
func (s *TokenService) Logout(ctx context.Context, token string) error {
	return s.manager.RemoveAccessToken(ctx, token)
}

// parseUserID validates the JWT signature and time claims and returns the uid claim
func (s *TokenService) parseUserID(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method to prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("token parsing failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims format")
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return 0, fmt.Errorf("token missing required 'uid' claim")
	}
	parsed, err := strconv.ParseUint(uid, 10, 32)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid uid claim: %s", uid)
	}
	return uint(parsed), nil
}
