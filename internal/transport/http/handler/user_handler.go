package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-classifieds/internal/domain"
	"go-classifieds/internal/service"
	resp "go-classifieds/internal/transport/http/response"
)

// RefreshCookieName 续期令牌走 httpOnly cookie，与浏览器端约定一致
const RefreshCookieName = "refreshToken"

type UserHandler struct {
	sessions   *service.Session
	refreshTTL time.Duration
}

func NewUserHandler(sessions *service.Session, refreshTTL time.Duration) *UserHandler {
	return &UserHandler{sessions: sessions, refreshTTL: refreshTTL}
}

type credentialsIn struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var in credentialsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.WriteError(c, domain.NewValidation(map[string]string{"body": "invalid JSON body"}))
		return
	}
	u, pair, err := h.sessions.Register(in.Name, in.Email, in.Password)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"user": u, "accessToken": pair.AccessToken})
}

func (h *UserHandler) Login(c *gin.Context) {
	var in credentialsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.WriteError(c, domain.NewValidation(map[string]string{"body": "invalid JSON body"}))
		return
	}
	u, pair, err := h.sessions.Login(in.Email, in.Password)
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"user": u, "accessToken": pair.AccessToken})
}

func (h *UserHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookieName)
	if err := h.sessions.Logout(token); err != nil {
		resp.WriteError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": 1})
}

func (h *UserHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookieName)
	pair, err := h.sessions.Refresh(token)
	if err != nil {
		// 令牌明确失效才清 cookie；瞬时故障保留续期能力
		if domain.IsKind(err, domain.KindAuth) {
			h.clearRefreshCookie(c)
		}
		resp.WriteError(c, err)
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}

func (h *UserHandler) Activate(c *gin.Context) {
	u, err := h.sessions.Activate(c.Param("code"))
	if err != nil {
		resp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UserHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(RefreshCookieName, token, int(h.refreshTTL/time.Second), "/", "", false, true)
}

func (h *UserHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(RefreshCookieName, "", -1, "/", "", false, true)
}
