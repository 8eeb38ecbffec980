package routes

import (
	"civicsetu-be/controllers"
	"civicsetu-be/middlewares"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine, d Dependencies) {
	userController := controllers.NewUserController(d.Users)
	can := d.Authz.RequirePermission

	users := r.Group("/api/users", middlewares.AuthMiddleware(d.Config.JWTSecret))
	{
		users.GET("", can(middlewares.ObjUser, middlewares.ActRead), userController.GetUsers)
		users.GET("/:id", userController.GetUser)
		users.PUT("/:id/activate", can(middlewares.ObjUser, middlewares.ActWrite), userController.ActivateUser)
		users.PUT("/:id/deactivate", can(middlewares.ObjUser, middlewares.ActWrite), userController.DeactivateUser)
		users.PUT("/:id/role", can(middlewares.ObjUser, middlewares.ActWrite), userController.UpdateRole)
	}
}
