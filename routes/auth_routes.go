package routes

import (
	"codesync/controllers"
	"codesync/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	authController := controllers.NewAuthController(container.AuthService)

	auth := rg.Group("/auth")
	{
		// Public routes
		auth.POST("/signup", authController.SignUp)
		auth.POST("/signin", authController.SignIn)

		// Protected routes requiring authentication
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
		{
			protected.GET("/me", authController.Me)
		}
	}
}
