package router

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"go-classifieds/internal/domain"
	"go-classifieds/internal/service"
	"go-classifieds/internal/transport/http/handler"
	mdw "go-classifieds/internal/transport/http/middleware"
)

// NewAdminEngine 运营端独立进程，整组要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(20, 40),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.AccessLog(d.Log),
	)

	sessions := service.NewSession(d.DB, d.JWTer, d.RefreshTTL, d.Log)
	anns := service.NewAnnouncements(d.DB, d.Files, d.Cache, d.Log)
	adminH := handler.NewAdminHandler(sessions, anns)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	g := r.Group("/admin/v1")
	g.Use(mdw.AuthJWT(d.JWTer), mdw.RequireRole(domain.RoleAdmin))
	{
		g.GET("/users", adminH.ListUsers)
		g.DELETE("/announcements/:id", adminH.DeleteAnnouncement)
	}

	return r
}
