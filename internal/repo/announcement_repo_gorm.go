package repo

import (
	"errors"

	"gorm.io/gorm"

	"go-classifieds/internal/domain"
)

type AnnouncementRepo struct{ db *gorm.DB }

func NewAnnouncementRepo(db *gorm.DB) *AnnouncementRepo { return &AnnouncementRepo{db: db} }

func (r *AnnouncementRepo) Create(a *domain.Announcement) error { return r.db.Create(a).Error }

func (r *AnnouncementRepo) FindByID(id string) (*domain.Announcement, error) {
	var a domain.Announcement
	err := r.db.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &a, err
}

// List 排除 exceptions 在分页之前完成（SQL 层），保证 total 与展示集一致
func (r *AnnouncementRepo) List(f domain.ListFilter, offset, limit int) ([]domain.Announcement, int64, error) {
	q := r.db.Model(&domain.Announcement{})

	// 哨兵 "Any" 等价于无分类过滤
	if f.CategoryID != "" && f.CategoryID != domain.CategoryAnyID {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Query != "" {
		q = q.Where("title LIKE ?", "%"+f.Query+"%")
	}
	if f.PriceMin > 0 {
		q = q.Where("price >= ?", f.PriceMin)
	}
	if f.PriceMax > 0 {
		q = q.Where("price <= ?", f.PriceMax)
	}
	if len(f.Exceptions) > 0 {
		q = q.Where("id NOT IN ?", f.Exceptions)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []domain.Announcement
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *AnnouncementRepo) Update(a *domain.Announcement) error { return r.db.Save(a).Error }

func (r *AnnouncementRepo) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Announcement{}).Error
}
