package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/foroapp/server/internal/container"
	"github.com/foroapp/server/internal/handlers"
	"github.com/foroapp/server/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "foroapp-api",
			})
		})
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.SupabaseClient, container.UserRepo, container.Logger))

	protected.GET("/profile", handlers.Profile())
	protected.POST("/signout", handlers.SignOut(container.Identity))

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("/", handlers.CreateEvent(container.EventService))
		eventRoutes.GET("/", handlers.ListEvents(container.EventService))
		eventRoutes.GET("/:id", handlers.GetEvent(container.EventService))
		eventRoutes.PUT("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))

		eventRoutes.POST("/:id/attendance", handlers.ToggleAttendance(container.AttendanceService))
		eventRoutes.GET("/:id/attendance/count", handlers.GetAttendeeCount(container.AttendanceService))

		eventRoutes.POST("/:id/rating", handlers.SubmitRating(container.RatingService))
		eventRoutes.GET("/:id/rating", handlers.GetAverageRating(container.RatingService))

		eventRoutes.POST("/:id/comments", handlers.AddComment(container.CommentService))
		eventRoutes.GET("/:id/comments", handlers.ListComments(container.CommentService))
	}

	liveRoutes := protected.Group("/live")
	{
		liveRoutes.GET("/my-events", handlers.MyEventsStream(container.EventService, container.AttendanceService, container.Logger))
		liveRoutes.GET("/events/:id/attendees", handlers.AttendeeCountStream(container.CountPool, container.Logger))
	}

	return r
}
