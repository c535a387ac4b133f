package domain

import "time"

type Announcement struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:64" json:"title"`
	CategoryID  string    `gorm:"size:36;index" json:"category"`
	Price       int       `json:"price"`
	Description string    `gorm:"size:1024" json:"description"`
	Location    string    `gorm:"size:64" json:"location"`
	Email       string    `gorm:"size:191" json:"email"`
	PhoneNumber string    `gorm:"size:16" json:"phoneNumber"`
	Image       string    `gorm:"size:191" json:"image"` // 存储层引用，非原始文件名
	OwnerID     string    `gorm:"size:36;index" json:"ownerId"`
	Vip         bool      `json:"vip"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Announcement) TableName() string { return "announcements" }

// 字段边界（两端共用，服务端为准）
const (
	TitleMinLen       = 3
	TitleMaxLen       = 50
	PriceMin          = 1
	PriceMax          = 999_999
	DescriptionMaxLen = 600
	LocationMinLen    = 2
	LocationMaxLen    = 60
	PhoneMinLen       = 10
	PhoneMaxLen       = 13
)

// ListFilter 列表筛选；零值字段不参与过滤
type ListFilter struct {
	CategoryID string
	Query      string // title 模糊匹配
	PriceMin   int
	PriceMax   int
	Exceptions []string // 展示前排除的 id
}

type Page struct {
	Items []Announcement `json:"items"`
	Total int64          `json:"total"`
}

type AnnouncementRepository interface {
	Create(a *Announcement) error
	FindByID(id string) (*Announcement, error)
	List(f ListFilter, offset, limit int) ([]Announcement, int64, error)
	Update(a *Announcement) error
	Delete(id string) error
}
