package routes

import (
	"civicsetu-be/controllers"
	"civicsetu-be/middlewares"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine, d Dependencies) {
	adminController := controllers.NewAdminController(d.Reports, d.Users, d.Departments)
	can := d.Authz.RequirePermission

	admin := r.Group("/api/admin",
		middlewares.AuthMiddleware(d.Config.JWTSecret),
		can(middlewares.ObjDashboard, middlewares.ActRead),
	)
	{
		admin.GET("/dashboard", adminController.GetDashboardStats)
		admin.GET("/reports/analytics", adminController.GetReportAnalytics)
		admin.GET("/users/analytics", adminController.GetUserAnalytics)
		admin.GET("/performance", adminController.GetPerformanceMetrics)

		admin.GET("/departments", can(middlewares.ObjDepartment, middlewares.ActRead), adminController.GetDepartments)
		admin.POST("/departments", can(middlewares.ObjDepartment, middlewares.ActWrite), adminController.CreateDepartment)
		admin.PUT("/departments/:code", can(middlewares.ObjDepartment, middlewares.ActWrite), adminController.UpdateDepartment)
		admin.DELETE("/departments/:code", can(middlewares.ObjDepartment, middlewares.ActWrite), adminController.DeleteDepartment)

		admin.POST("/staff", can(middlewares.ObjStaff, middlewares.ActCreate), adminController.CreateStaffUser)
		admin.POST("/staff/assign-area", can(middlewares.ObjStaff, middlewares.ActCreate), adminController.AssignAreaToStaff)
	}
}
