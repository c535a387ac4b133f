package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-classifieds/internal/core/cache"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/repo"
	"go-classifieds/pkg/utils"
)

const (
	categoryCacheTTL = 10 * time.Minute
	categoryCacheKey = "categories"
)

// Categories 核心只读；Seed 供首次启动填充
type Categories struct {
	repo  domain.CategoryRepository
	cache *cache.Cache
}

func NewCategories(db *gorm.DB, c *cache.Cache) *Categories {
	return &Categories{repo: repo.NewCategoryRepo(db), cache: c}
}

func (s *Categories) List(ctx context.Context) ([]domain.Category, error) {
	out, err := cache.GetOrLoadJSON(s.cache, ctx, categoryCacheKey, categoryCacheTTL,
		func(context.Context) (*[]domain.Category, error) {
			cs, e := s.repo.List()
			if e != nil {
				return nil, e
			}
			return &cs, nil
		})
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if out == nil {
		return []domain.Category{}, nil
	}
	return *out, nil
}

func (s *Categories) GetByID(id string) (*domain.Category, error) {
	c, err := s.repo.FindByID(id)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if c == nil {
		return nil, domain.NewNotFound("category not found")
	}
	return c, nil
}

// Seed 已有数据时不动
func (s *Categories) Seed(names ...string) error {
	existing, err := s.repo.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, name := range names {
		if err := s.repo.Create(&domain.Category{ID: utils.NewID(), Name: name}); err != nil {
			return err
		}
	}
	return nil
}
