package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zornyy/photoCloud/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Photos        *PhotoHandler
	Guard         *middleware.Guard
	AuthRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRoutes := api.Group("/auth")
	if deps.AuthRateLimit > 0 {
		authRoutes.Use(middleware.RateLimit(deps.AuthRateLimit))
	}
	authRoutes.POST("/register", deps.Auth.Register)
	authRoutes.POST("/login", deps.Auth.Login)
	authRoutes.POST("/logout", deps.Auth.Logout)

	authGroup := api.Group("")
	authGroup.Use(deps.Guard.Handler())
	authGroup.GET("/users/me", deps.Users.Me)
	authGroup.PUT("/users/me", deps.Users.UpdateMe)

	authGroup.POST("/photos", deps.Photos.Upload)
	authGroup.GET("/photos", deps.Photos.List)
	authGroup.GET("/photos/:id", deps.Photos.Get)
	authGroup.GET("/photos/:id/content", deps.Photos.Content)
	authGroup.DELETE("/photos/:id", deps.Photos.Delete)
}
