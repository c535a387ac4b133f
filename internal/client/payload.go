package client

import (
	"bytes"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go-classifieds/internal/domain"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ImageFile struct {
	Name    string
	Content []byte
}

// AnnouncementFields 两种提交变体共用的文本字段
type AnnouncementFields struct {
	Title       string
	Category    string
	Price       int
	Description string
	Location    string
	Email       string
	PhoneNumber string
}

// CreatePayload 创建变体：图片必填
type CreatePayload struct {
	AnnouncementFields
	Image ImageFile
}

// UpdatePayload 更新变体：图片可省，省略时服务端保留旧引用
type UpdatePayload struct {
	AnnouncementFields
	Image *ImageFile
}

// validate 客户端先行校验（仅改善体验，服务端才是权威）
func (f AnnouncementFields) validate() map[string]string {
	fields := map[string]string{}

	// 长度规则与服务端一致：按字符数
	title := strings.TrimSpace(f.Title)
	if title == "" {
		fields["title"] = "Please provide title"
	} else if utf8.RuneCountInString(title) < domain.TitleMinLen {
		fields["title"] = "Min length: 3"
	} else if utf8.RuneCountInString(title) > domain.TitleMaxLen {
		fields["title"] = "Max length: 50"
	}

	if f.Price < domain.PriceMin {
		fields["price"] = "Min: 1"
	} else if f.Price > domain.PriceMax {
		fields["price"] = "Max: 999 999"
	}

	if f.Description == "" {
		fields["description"] = "Please provide description"
	} else if utf8.RuneCountInString(f.Description) > domain.DescriptionMaxLen {
		fields["description"] = "Max length: 600"
	}

	loc := strings.TrimSpace(f.Location)
	if loc == "" {
		fields["location"] = "Please provide location"
	} else if utf8.RuneCountInString(loc) < domain.LocationMinLen {
		fields["location"] = "Min length: 2"
	} else if utf8.RuneCountInString(loc) > domain.LocationMaxLen {
		fields["location"] = "Max length: 60"
	}

	if !emailRe.MatchString(strings.TrimSpace(f.Email)) {
		fields["email"] = "Please provide a valid email"
	}

	phone := strings.TrimSpace(f.PhoneNumber)
	if phone == "" {
		fields["phoneNumber"] = "Please provide phone number"
	} else if utf8.RuneCountInString(phone) < domain.PhoneMinLen {
		fields["phoneNumber"] = "Min length: 10"
	} else if utf8.RuneCountInString(phone) > domain.PhoneMaxLen {
		fields["phoneNumber"] = "Max length: 13"
	}

	if f.Category == "" {
		fields["category"] = "Please provide category"
	}

	return fields
}

func (p CreatePayload) Validate() map[string]string {
	fields := p.AnnouncementFields.validate()
	if len(p.Image.Content) == 0 {
		fields["image"] = "Please provide image"
	}
	return fields
}

func (p UpdatePayload) Validate() map[string]string {
	return p.AnnouncementFields.validate()
}

// encodeMultipart 字段名与服务端表单契约一致
func encodeMultipart(f AnnouncementFields, image *ImageFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	values := map[string]string{
		"title":       f.Title,
		"category":    f.Category,
		"price":       strconv.Itoa(f.Price),
		"description": f.Description,
		"location":    f.Location,
		"email":       f.Email,
		"phoneNumber": f.PhoneNumber,
	}
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", image.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(image.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
