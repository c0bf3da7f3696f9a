package handler

import (
	"path/filepath"

	"github.com/TIANLI0/CutoutKit/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter 注册全部路由，staticDir 为空时不挂载首页
func NewRouter(upload *UploadHandler, health *HealthHandler, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	r.GET("/health", health.Health)
	r.GET("/version", health.Version)

	r.POST("/smart-upload", upload.Upload)

	api := r.Group("/api/v1")
	{
		api.POST("/remove", upload.Upload)
	}

	return r
}
