package service

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-classifieds/internal/core/cache"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/repo"
	"go-classifieds/internal/storage"
	"go-classifieds/pkg/utils"
)

const (
	detailCacheTTL  = 5 * time.Minute
	detailCacheKey  = "ann:"
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AnnouncementInput multipart 表单字段原样传入，Price 在校验阶段解析
type AnnouncementInput struct {
	Title       string
	CategoryID  string
	Price       string
	Description string
	Location    string
	Email       string
	PhoneNumber string
}

// ImageUpload 附件；nil 表示本次未携带
type ImageUpload struct {
	Name   string
	Reader io.Reader
}

type Announcements struct {
	repo       domain.AnnouncementRepository
	categories domain.CategoryRepository
	files      storage.Store
	cache      *cache.Cache // nil = 不走缓存
	log        *zap.Logger
}

func NewAnnouncements(db *gorm.DB, files storage.Store, c *cache.Cache, log *zap.Logger) *Announcements {
	return &Announcements{
		repo:       repo.NewAnnouncementRepo(db),
		categories: repo.NewCategoryRepo(db),
		files:      files,
		cache:      c,
		log:        log,
	}
}

func (s *Announcements) List(f domain.ListFilter, page, pageSize int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	items, total, err := s.repo.List(f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if items == nil {
		items = []domain.Announcement{}
	}
	return &domain.Page{Items: items, Total: total}, nil
}

func (s *Announcements) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	a, err := cache.GetOrLoadJSON(s.cache, ctx, detailCacheKey+id, detailCacheTTL,
		func(context.Context) (*domain.Announcement, error) {
			return s.repo.FindByID(id)
		})
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if a == nil {
		return nil, domain.NewNotFound("announcement not found")
	}
	return a, nil
}

func (s *Announcements) Create(ctx context.Context, ownerID string, in AnnouncementInput, image *ImageUpload) (*domain.Announcement, error) {
	price, fields := s.validate(in, image, true)
	if len(fields) > 0 {
		return nil, domain.NewValidation(fields)
	}

	ref, err := s.files.Save(image.Name, image.Reader)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	a := &domain.Announcement{
		ID:          utils.NewID(),
		Title:       strings.TrimSpace(in.Title),
		CategoryID:  in.CategoryID,
		Price:       price,
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Image:       ref,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(a); err != nil {
		_ = s.files.Remove(ref)
		return nil, domain.NewInternal(err)
	}
	return a, nil
}

func (s *Announcements) Update(ctx context.Context, callerID, callerRole, id string, in AnnouncementInput, image *ImageUpload) (*domain.Announcement, error) {
	a, err := s.repo.FindByID(id)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if a == nil {
		return nil, domain.NewNotFound("announcement not found")
	}
	if a.OwnerID != callerID && callerRole != domain.RoleAdmin {
		return nil, domain.NewForbidden("not the owner")
	}

	// 已有图片时本次可省略
	price, fields := s.validate(in, image, a.Image == "")
	if len(fields) > 0 {
		return nil, domain.NewValidation(fields)
	}

	oldRef := ""
	if image != nil {
		ref, err := s.files.Save(image.Name, image.Reader)
		if err != nil {
			return nil, domain.NewInternal(err)
		}
		oldRef = a.Image
		a.Image = ref
	}
	a.Title = strings.TrimSpace(in.Title)
	a.CategoryID = in.CategoryID
	a.Price = price
	a.Description = in.Description
	a.Location = strings.TrimSpace(in.Location)
	a.Email = strings.ToLower(strings.TrimSpace(in.Email))
	a.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if err := s.repo.Update(a); err != nil {
		// 新图已落盘但记录没更新，回收新图
		if image != nil {
			_ = s.files.Remove(a.Image)
		}
		return nil, domain.NewInternal(err)
	}
	if oldRef != "" {
		_ = s.files.Remove(oldRef)
	}
	s.invalidate(ctx, id)
	return a, nil
}

func (s *Announcements) Delete(ctx context.Context, callerID, callerRole, id string) error {
	a, err := s.repo.FindByID(id)
	if err != nil {
		return domain.NewInternal(err)
	}
	if a == nil {
		return domain.NewNotFound("announcement not found")
	}
	if a.OwnerID != callerID && callerRole != domain.RoleAdmin {
		return domain.NewForbidden("not the owner")
	}
	if err := s.repo.Delete(id); err != nil {
		return domain.NewInternal(err)
	}
	_ = s.files.Remove(a.Image)
	s.invalidate(ctx, id)
	return nil
}

// validate 服务端为准；返回解析后的 price 与字段错误表
func (s *Announcements) validate(in AnnouncementInput, image *ImageUpload, imageRequired bool) (int, map[string]string) {
	fields := map[string]string{}

	// 长度按字符数，非字节数
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields["title"] = "Please provide title"
	} else if utf8.RuneCountInString(title) < domain.TitleMinLen {
		fields["title"] = "Min length: 3"
	} else if utf8.RuneCountInString(title) > domain.TitleMaxLen {
		fields["title"] = "Max length: 50"
	}

	price, err := strconv.Atoi(strings.TrimSpace(in.Price))
	switch {
	case strings.TrimSpace(in.Price) == "" || err != nil:
		fields["price"] = "Please provide price"
	case price < domain.PriceMin:
		fields["price"] = "Min: 1"
	case price > domain.PriceMax:
		fields["price"] = "Max: 999 999"
	}

	if in.Description == "" {
		fields["description"] = "Please provide description"
	} else if utf8.RuneCountInString(in.Description) > domain.DescriptionMaxLen {
		fields["description"] = "Max length: 600"
	}

	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		fields["location"] = "Please provide location"
	} else if utf8.RuneCountInString(loc) < domain.LocationMinLen {
		fields["location"] = "Min length: 2"
	} else if utf8.RuneCountInString(loc) > domain.LocationMaxLen {
		fields["location"] = "Max length: 60"
	}

	if !emailRe.MatchString(strings.TrimSpace(in.Email)) {
		fields["email"] = "Please provide a valid email"
	}

	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" {
		fields["phoneNumber"] = "Please provide phone number"
	} else if utf8.RuneCountInString(phone) < domain.PhoneMinLen {
		fields["phoneNumber"] = "Min length: 10"
	} else if utf8.RuneCountInString(phone) > domain.PhoneMaxLen {
		fields["phoneNumber"] = "Max length: 13"
	}

	if imageRequired && image == nil {
		fields["image"] = "Please provide image"
	}

	// 分类必须真实存在；哨兵 "Any" 只用于筛选，不能作为归属分类
	if in.CategoryID == "" || in.CategoryID == domain.CategoryAnyID {
		fields["category"] = "Please provide category"
	} else if c, err := s.categories.FindByID(in.CategoryID); err != nil || c == nil {
		fields["category"] = "Unknown category"
	}

	return price, fields
}

func (s *Announcements) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, detailCacheKey+id)
	}
}
