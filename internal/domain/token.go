package domain

import "time"

// RefreshToken 服务端持久化的续期令牌；每次续期旋转（删旧插新）
type RefreshToken struct {
	Token     string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// TokenPair 短效 access + 长效 refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

type RefreshTokenRepository interface {
	Create(t *RefreshToken) error
	Find(token string) (*RefreshToken, error)
	Delete(token string) error
	DeleteByUser(userID string) error
}
