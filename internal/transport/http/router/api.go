package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-classifieds/internal/core/auth"
	"go-classifieds/internal/core/cache"
	"go-classifieds/internal/repo"
	"go-classifieds/internal/service"
	"go-classifieds/internal/storage"
	"go-classifieds/internal/transport/http/handler"
	mdw "go-classifieds/internal/transport/http/middleware"
)

type Deps struct {
	Log        *zap.Logger
	DB         *gorm.DB
	JWTer      *auth.JWTer
	Cache      *cache.Cache // 可为 nil
	Files      *storage.Disk
	RefreshTTL time.Duration
}

// NewAPIEngine 对外 REST 面，无 /api 前缀
func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.New(cors.Config{
			AllowOriginFunc:  func(string) bool { return true },
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true, // refresh cookie
			MaxAge:           12 * time.Hour,
		}),
	)

	sessions := service.NewSession(d.DB, d.JWTer, d.RefreshTTL, d.Log)
	anns := service.NewAnnouncements(d.DB, d.Files, d.Cache, d.Log)
	cats := service.NewCategories(d.DB, d.Cache)

	userH := handler.NewUserHandler(sessions, d.RefreshTTL)
	annH := handler.NewAnnouncementHandler(anns)
	catH := handler.NewCategoryHandler(cats)
	cmtH := handler.NewCommentHandler(repo.NewCommentRepo(d.DB))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/static", d.Files.Dir())

	authed := mdw.AuthJWT(d.JWTer)

	user := r.Group("/user")
	{
		user.POST("/register", userH.Register)
		user.POST("/login", userH.Login)
		user.POST("/logout", authed, userH.Logout)
		user.POST("/refresh", userH.Refresh)
		user.GET("/activate/:code", userH.Activate)
	}

	ann := r.Group("/announcement")
	{
		ann.GET("", annH.List)
		ann.GET("/:id", annH.Get)
		ann.POST("", authed, annH.Create)
		ann.PATCH("/:id", authed, annH.Update)
		ann.DELETE("/:id", authed, annH.Delete)
	}

	cat := r.Group("/category")
	{
		cat.GET("", catH.List)
		cat.GET("/:id", catH.Get)
	}

	cmt := r.Group("/comment")
	{
		cmt.GET("", cmtH.List)
		cmt.GET("/:id", cmtH.Get)
		cmt.POST("", authed, cmtH.Create)
		cmt.PATCH("/:id", authed, cmtH.Update)
		cmt.DELETE("/:id", authed, cmtH.Delete)
	}

	return r
}
