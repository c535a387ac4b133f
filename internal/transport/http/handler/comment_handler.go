package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/domain"
	resp "go-classifieds/internal/transport/http/response"
	"go-classifieds/pkg/utils"
)

// CommentHandler 简单 CRUD 透传，核心只依赖其读契约
type CommentHandler struct {
	comments domain.CommentRepository
}

func NewCommentHandler(comments domain.CommentRepository) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	var (
		cs  []domain.Comment
		err error
	)
	if annID := c.Query("announcement"); annID != "" {
		cs, err = h.comments.ListByAnnouncement(annID)
	} else {
		cs, err = h.comments.List()
	}
	if err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	if cs == nil {
		cs = []domain.Comment{}
	}
	c.JSON(http.StatusOK, cs)
}

func (h *CommentHandler) Get(c *gin.Context) {
	cm, err := h.comments.FindByID(c.Param("id"))
	if err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	if cm == nil {
		resp.WriteError(c, domain.NewNotFound("comment not found"))
		return
	}
	c.JSON(http.StatusOK, cm)
}

type commentIn struct {
	AnnouncementID string `json:"announcement"`
	Body           string `json:"body"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var in commentIn
	if err := c.ShouldBindJSON(&in); err != nil || in.Body == "" || in.AnnouncementID == "" {
		resp.WriteError(c, domain.NewValidation(map[string]string{"body": "announcement and body required"}))
		return
	}
	cm := &domain.Comment{
		ID:             utils.NewID(),
		AnnouncementID: in.AnnouncementID,
		AuthorID:       c.GetString("userId"),
		Body:           in.Body,
	}
	if err := h.comments.Create(cm); err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *CommentHandler) Update(c *gin.Context) {
	cm, err := h.comments.FindByID(c.Param("id"))
	if err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	if cm == nil {
		resp.WriteError(c, domain.NewNotFound("comment not found"))
		return
	}
	if cm.AuthorID != c.GetString("userId") && c.GetString("role") != domain.RoleAdmin {
		resp.WriteError(c, domain.NewForbidden("not the author"))
		return
	}
	var in commentIn
	if err := c.ShouldBindJSON(&in); err != nil || in.Body == "" {
		resp.WriteError(c, domain.NewValidation(map[string]string{"body": "body required"}))
		return
	}
	cm.Body = in.Body
	if err := h.comments.Update(cm); err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	cm, err := h.comments.FindByID(c.Param("id"))
	if err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	if cm == nil {
		resp.WriteError(c, domain.NewNotFound("comment not found"))
		return
	}
	if cm.AuthorID != c.GetString("userId") && c.GetString("role") != domain.RoleAdmin {
		resp.WriteError(c, domain.NewForbidden("not the author"))
		return
	}
	if err := h.comments.Delete(cm.ID); err != nil {
		resp.WriteError(c, domain.NewInternal(err))
		return
	}
	c.Status(http.StatusNoContent)
}
