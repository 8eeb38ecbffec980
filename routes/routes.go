package routes

import (
	"net/http"
	"time"

	"civicsetu-be/config"
	"civicsetu-be/controllers"
	"civicsetu-be/events"
	"civicsetu-be/logger"
	"civicsetu-be/metrics"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/stores"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Dependencies is everything the router wires into controllers.
type Dependencies struct {
	Config      *config.Config
	Reports     stores.ReportStore
	Upvotes     stores.UpvoteStore
	Users       stores.UserStore
	Departments stores.DepartmentStore
	Policy      models.TransitionPolicy
	Publisher   events.Publisher
	Subscriber  events.Subscriber
	Metrics     *metrics.Metrics
	Authz       *middlewares.Authorizer
	// Redis backs the report rate limiter. Without it reports are not rate limited.
	Redis        *redis.Client
	PingInterval time.Duration
}

// SetupRouter builds the gin engine with every API route.
func SetupRouter(d Dependencies) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(logger.WithComponent("http")))
	r.Use(middlewares.Metrics(d.Metrics))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = d.Config.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", middlewares.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{middlewares.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	r.Use(secure.New(secureConfig))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"status":      "ok",
			"transitions": d.Policy.Name(),
			"time":        time.Now(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))
	r.GET("/api/statuses", controllers.GetStatuses(d.Policy))

	AuthRoutes(r, d)
	ReportRoutes(r, d)
	UserRoutes(r, d)
	AdminRoutes(r, d)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
	return r
}
