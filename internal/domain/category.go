package domain

// CategoryAnyID 哨兵分类 "Any"：表示不过滤，永远不是真实分类行
const CategoryAnyID = "62782d01909cc2389eb9e4c5"

type Category struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"uniqueIndex;size:64" json:"name"`
}

func (Category) TableName() string { return "categories" }

type CategoryRepository interface {
	FindByID(id string) (*Category, error)
	List() ([]Category, error)
	Create(c *Category) error
}
