package services

import (
	"context"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"gorm.io/gorm"
)

// TagService manages the tag catalogue
type TagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id uint) error
}

type tagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

func (s *tagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err, "tag")
	}
	return &tag, nil
}

func (s *tagService) GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, translate(err, "tag")
	}
	return &tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, tag *models.Tag) error {
	return translate(s.db.WithContext(ctx).Create(tag).Error, "tag")
}

func (s *tagService) UpdateTag(ctx context.Context, tag *models.Tag) error {
	if _, err := s.GetTag(ctx, tag.ID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Save(tag).Error, "tag")
}

func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag := models.Tag{ID: id}
		if err := tx.First(&tag).Error; err != nil {
			return translate(err, "tag")
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
}
