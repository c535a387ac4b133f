package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-classifieds/internal/core/auth"
	coreCache "go-classifieds/internal/core/cache"
	"go-classifieds/internal/core/config"
	"go-classifieds/internal/core/database"
	"go-classifieds/internal/core/logger"
	"go-classifieds/internal/core/server"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/service"
	"go-classifieds/internal/storage"
	"go-classifieds/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.User{},
			&domain.RefreshToken{},
			&domain.Category{},
			&domain.Announcement{},
			&domain.Comment{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	var c *coreCache.Cache
	if cfg.Redis.Enable {
		c = coreCache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	files, err := storage.NewDisk(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal("upload dir", zap.Error(err))
	}

	// 首次启动填充分类
	if err := service.NewCategories(db, nil).Seed(
		"Electronics", "Vehicles", "Real Estate", "Clothes", "Pets", "Services",
	); err != nil {
		log.Fatal("seed categories", zap.Error(err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	r := router.NewAPIEngine(router.Deps{
		Log:        log,
		DB:         db,
		JWTer:      jwter,
		Cache:      c,
		Files:      files,
		RefreshTTL: time.Duration(cfg.JWT.RefreshTokenTTLDay) * 24 * time.Hour,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	log.Info("marketplace api starting", zap.String("addr", addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("marketplace api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("marketplace api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
