package repo

import (
	"errors"

	"gorm.io/gorm"

	"go-classifieds/internal/domain"
)

type RefreshTokenRepo struct{ db *gorm.DB }

func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

func (r *RefreshTokenRepo) Create(t *domain.RefreshToken) error { return r.db.Create(t).Error }

func (r *RefreshTokenRepo) Find(token string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.First(&t, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (r *RefreshTokenRepo) Delete(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.RefreshToken{}).Error
}

func (r *RefreshTokenRepo) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.RefreshToken{}).Error
}
