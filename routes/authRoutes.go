package routes

import (
	"civicsetu-be/controllers"
	"civicsetu-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, d Dependencies) {
	authController := controllers.NewAuthController(d.Users, d.Config)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.GET("/me", middlewares.AuthMiddleware(d.Config.JWTSecret), authController.Me)
	}
}
