package services

import (
	"context"
	"fmt"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// FollowService manages subscriptions between users and authors
type FollowService interface {
	// Subscribe makes userID follow authorID and returns the author
	Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	// Subscriptions lists the authors userID follows, oldest subscription first
	Subscriptions(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	// SubscribedTo reports which of authorIDs userID follows
	SubscribedTo(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
}

type followService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) FollowService {
	return &followService{db: db}
}

func (s *followService) Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var author models.User
	if err := db.First(&author, authorID).Error; err != nil {
		return nil, translate(err, "author")
	}
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var count int64
	if err := db.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("already subscribed to this author: %w", ErrAlreadyExists)
	}

	if err := db.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error; err != nil {
		return nil, translate(err, "subscription")
	}
	return &author, nil
}

func (s *followService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	db := s.db.WithContext(ctx)

	var author models.User
	if err := db.Select("id").First(&author, authorID).Error; err != nil {
		return translate(err, "author")
	}

	result := db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "subscription")
	}
	return nil
}

func (s *followService) Subscriptions(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	authors := []models.User{}
	err := db.Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id").
		Limit(limit).
		Offset(offset).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, count, nil
}

func (s *followService) SubscribedTo(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	subscribed := map[uint]bool{}
	if userID == 0 || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var found []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		subscribed[id] = true
	}
	return subscribed, nil
}
