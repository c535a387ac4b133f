package domain

import "time"

type Comment struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	AnnouncementID string    `gorm:"size:36;index" json:"announcement"`
	AuthorID       string    `gorm:"size:36;index" json:"author"`
	Body           string    `gorm:"size:1024" json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

type CommentRepository interface {
	Create(c *Comment) error
	FindByID(id string) (*Comment, error)
	ListByAnnouncement(announcementID string) ([]Comment, error)
	List() ([]Comment, error)
	Update(c *Comment) error
	Delete(id string) error
}
