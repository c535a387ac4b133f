package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/service"
	resp "go-classifieds/internal/transport/http/response"
)

// AdminHandler 运营面：用户列表 + 不受 owner 限制的公告删除
type AdminHandler struct {
	sessions *service.Session
	anns     *service.Announcements
}

func NewAdminHandler(sessions *service.Session, anns *service.Announcements) *AdminHandler {
	return &AdminHandler{sessions: sessions, anns: anns}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset := atoiDefault(c.Query("offset"), 0)
	limit := atoiDefault(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	users, total, err := h.sessions.ListUsers(offset, limit)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": users, "total": total})
}

func (h *AdminHandler) DeleteAnnouncement(c *gin.Context) {
	// role=admin 时 service 跳过 owner 校验
	err := h.anns.Delete(c.Request.Context(),
		c.GetString("userId"), c.GetString("role"), c.Param("id"))
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
