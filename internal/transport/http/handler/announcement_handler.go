package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/domain"
	"go-classifieds/internal/service"
	resp "go-classifieds/internal/transport/http/response"
)

type AnnouncementHandler struct {
	anns *service.Announcements
}

func NewAnnouncementHandler(anns *service.Announcements) *AnnouncementHandler {
	return &AnnouncementHandler{anns: anns}
}

func (h *AnnouncementHandler) List(c *gin.Context) {
	f := domain.ListFilter{
		CategoryID: c.Query("category"),
		Query:      c.Query("q"),
		PriceMin:   atoiDefault(c.Query("priceMin"), 0),
		PriceMax:   atoiDefault(c.Query("priceMax"), 0),
	}
	if raw := c.Query("exceptions"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.Exceptions = append(f.Exceptions, id)
			}
		}
	}
	page := atoiDefault(c.Query("page"), 1)
	size := atoiDefault(c.Query("pageSize"), service.DefaultPageSize)

	out, err := h.anns.List(f, page, size)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	a, err := h.anns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	in, image, err := bindAnnouncementForm(c)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	a, err := h.anns.Create(c.Request.Context(), c.GetString("userId"), in, image)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	in, image, err := bindAnnouncementForm(c)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	a, err := h.anns.Update(c.Request.Context(),
		c.GetString("userId"), c.GetString("role"), c.Param("id"), in, image)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	err := h.anns.Delete(c.Request.Context(),
		c.GetString("userId"), c.GetString("role"), c.Param("id"))
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindAnnouncementForm multipart 字段 + 可选 image；文件句柄由 gin 托管，请求结束自动清理
func bindAnnouncementForm(c *gin.Context) (service.AnnouncementInput, *service.ImageUpload, error) {
	in := service.AnnouncementInput{
		Title:       c.PostForm("title"),
		CategoryID:  c.PostForm("category"),
		Price:       c.PostForm("price"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
		Email:       c.PostForm("email"),
		PhoneNumber: c.PostForm("phoneNumber"),
	}
	fh, err := c.FormFile("image")
	if err != nil {
		// 未携带文件不是错误，required 判定在 service 层
		return in, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, nil, domain.NewInternal(err)
	}
	return in, &service.ImageUpload{Name: fh.Filename, Reader: f}, nil
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
