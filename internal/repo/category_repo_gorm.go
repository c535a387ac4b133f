package repo

import (
	"errors"

	"gorm.io/gorm"

	"go-classifieds/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) FindByID(id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var cs []domain.Category
	err := r.db.Order("name asc").Find(&cs).Error
	return cs, err
}

func (r *CategoryRepo) Create(c *domain.Category) error { return r.db.Create(c).Error }
