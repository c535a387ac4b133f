package repo

import (
	"errors"

	"gorm.io/gorm"

	"go-classifieds/internal/domain"
)

type CommentRepo struct{ db *gorm.DB }

func NewCommentRepo(db *gorm.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(c *domain.Comment) error { return r.db.Create(c).Error }

func (r *CommentRepo) FindByID(id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *CommentRepo) ListByAnnouncement(announcementID string) ([]domain.Comment, error) {
	var cs []domain.Comment
	err := r.db.Where("announcement_id = ?", announcementID).Order("created_at asc").Find(&cs).Error
	return cs, err
}

func (r *CommentRepo) List() ([]domain.Comment, error) {
	var cs []domain.Comment
	err := r.db.Order("created_at desc").Find(&cs).Error
	return cs, err
}

func (r *CommentRepo) Update(c *domain.Comment) error { return r.db.Save(c).Error }

func (r *CommentRepo) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Comment{}).Error
}
