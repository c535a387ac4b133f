package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/service"
	resp "go-classifieds/internal/transport/http/response"
)

type CategoryHandler struct {
	cats *service.Categories
}

func NewCategoryHandler(cats *service.Categories) *CategoryHandler {
	return &CategoryHandler{cats: cats}
}

func (h *CategoryHandler) List(c *gin.Context) {
	cs, err := h.cats.List(c.Request.Context())
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.cats.GetByID(c.Param("id"))
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}
