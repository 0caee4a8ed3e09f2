package routes

import (
	"time"

	"cleanly/handlers"
	"cleanly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRequestRoutes registers the booking request lifecycle endpoints.
func RegisterBookingRequestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/booking-requests")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", middleware.RequireRole(middleware.RoleBusiness, middleware.RoleAdmin), hb.ProposeRequestHandler)
		api.GET("/pending", hb.ListPendingRequestsHandler)
		api.GET("/:id", hb.GetRequestHandler)
		api.GET("/:id/countdown", hb.RequestCountdownHandler)
		api.GET("/:id/countdown/stream", hb.RequestCountdownStreamHandler)
		api.GET("/:id/chain", hb.RequestChainHandler)
		api.POST("/:id/accept", hb.AcceptRequestHandler)
		api.POST("/:id/decline", hb.DeclineRequestHandler)
		api.POST("/:id/cancel", hb.CancelRequestHandler)
		api.POST("/:id/rebook", hb.RebookRequestHandler)
	}
}

// RegisterCleanerRoutes registers cancellation penalty and account status endpoints.
func RegisterCleanerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/cleaners")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.Use(middleware.RequireRole(middleware.RoleCleaner, middleware.RoleAdmin))
		api.POST("/:id/cancellations/preview", hb.PreviewCancellationHandler)
		api.POST("/:id/cancellations/commit", hb.CommitCancellationHandler)
		api.GET("/:id/status", hb.CleanerStatusHandler)
		api.GET("/:id/penalties", hb.CleanerPenaltiesHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterBookingRequestRoutes(r, hb)
	RegisterCleanerRoutes(r, hb)
}
