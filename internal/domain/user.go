package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Email          string         `gorm:"uniqueIndex;size:191" json:"email"`
	Name           string         `gorm:"size:64" json:"name"`
	PasswordHash   string         `gorm:"size:191" json:"-"`
	Activated      bool           `json:"activated"`
	ActivationCode string         `gorm:"size:36;index" json:"-"` // 激活后清空
	Role           string         `gorm:"size:16" json:"role"`    // "user"/"admin"
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type UserRepository interface {
	Create(u *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	FindByActivationCode(code string) (*User, error)
	List(offset, limit int) ([]User, int64, error)
	Update(u *User) error
}
