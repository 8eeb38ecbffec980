package routes

import (
	"civicsetu-be/controllers"
	"civicsetu-be/middlewares"

	"github.com/gin-gonic/gin"
)

// ReportRoutes sets up the report routes
func ReportRoutes(r *gin.Engine, d Dependencies) {
	reportController := controllers.NewReportController(controllers.ReportControllerDeps{
		Reports:     d.Reports,
		Upvotes:     d.Upvotes,
		Users:       d.Users,
		Departments: d.Departments,
		Policy:      d.Policy,
		Events:      d.Publisher,
		Authz:       d.Authz,
		Metrics:     d.Metrics,
	})
	eventsController := controllers.NewEventsController(d.Subscriber, d.Metrics, d.PingInterval)

	auth := middlewares.AuthMiddleware(d.Config.JWTSecret)
	optional := middlewares.OptionalAuth(d.Config.JWTSecret)
	can := d.Authz.RequirePermission

	createChain := []gin.HandlerFunc{auth, can(middlewares.ObjReport, middlewares.ActCreate)}
	if d.Redis != nil {
		createChain = append(createChain, middlewares.ReportRateLimiter(d.Redis, d.Config.ReportLimitPrefix, d.Config.ReportDailyLimit))
	}
	createChain = append(createChain, reportController.CreateReport)

	reports := r.Group("/api/reports")
	{
		reports.GET("", optional, reportController.GetReports)
		reports.GET("/my-reports", auth, reportController.GetMyReports)
		reports.GET("/nearby", optional, reportController.GetNearbyReports)
		reports.GET("/stats", reportController.GetReportStats)
		reports.GET("/events", auth, eventsController.StreamStatusEvents)
		reports.GET("/:id", optional, reportController.GetReport)

		reports.POST("", createChain...)
		reports.PUT("/:id", auth, reportController.UpdateReport)
		reports.DELETE("/:id", auth, can(middlewares.ObjReport, middlewares.ActDelete), reportController.DeleteReport)

		reports.PATCH("/:id/status", auth, can(middlewares.ObjReport, middlewares.ActUpdateStatus), reportController.UpdateReportStatus)
		reports.POST("/:id/assign", auth, can(middlewares.ObjReport, middlewares.ActAssign), reportController.AssignReport)
		reports.POST("/:id/reopen", auth, can(middlewares.ObjReport, middlewares.ActReopen), reportController.ReopenReport)
		reports.POST("/:id/comment", auth, reportController.AddComment)
		reports.POST("/:id/upvote", auth, reportController.ToggleUpvote)
		reports.POST("/:id/feedback", auth, reportController.SubmitFeedback)
		reports.POST("/:id/media", auth, reportController.AddMedia)
	}
}
