package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/services"
)

type Dependencies struct {
	DB           *gorm.DB
	Config       *config.Config
	Logger       *zap.Logger
	UserService  services.UserService
	TokenService services.TokenService
	LabelService services.LabelService
	TaskService  services.TaskService
	AuthHandler  *handlers.AuthHandler
	LabelHandler *handlers.LabelHandler
	TaskHandler  *handlers.TaskHandler
	ShareHandler *handlers.ShareHandler
	HealthChecks map[string]monitoring.HealthCheckFunc
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.ErrorRenderer(deps.Logger, !deps.Config.IsProduction()))
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RateLimit(deps.Config.RateLimit))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authGate := middleware.AuthGate(deps.DB, deps.TokenService, deps.UserService, deps.Config.Auth.CookieSecure)

	ownTask := middleware.RequireOwnership(deps.DB, func(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
		return deps.TaskService.GetTaskByID(db, id)
	})
	ownLabel := middleware.RequireOwnership(deps.DB, func(db *gorm.DB, id uuid.UUID) (*models.Label, error) {
		return deps.LabelService.GetLabelByID(db, id)
	})

	api := r.Group("/api/v1")
	{
		api.GET("/health", monitoring.HealthHandler(deps.HealthChecks))
		api.GET("/metrics", monitoring.MetricsHandler())

		auth := api.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/logout", deps.AuthHandler.Logout)
			auth.POST("/forgotPassword", deps.AuthHandler.ForgotPassword)
			auth.POST("/resetPassword/:token", deps.AuthHandler.ResetPassword)
			auth.PUT("/resetPassword/:token", deps.AuthHandler.ResetPassword)
			auth.DELETE("/deleteMe", authGate, deps.AuthHandler.DeleteMe)
		}

		labels := api.Group("/labels", authGate)
		{
			labels.POST("", deps.LabelHandler.CreateLabel)
			labels.GET("", deps.LabelHandler.GetLabels)
			labels.GET("/:id", ownLabel, deps.LabelHandler.GetLabel)
			labels.PUT("/:id", ownLabel, deps.LabelHandler.UpdateLabel)
			labels.PATCH("/:id", ownLabel, deps.LabelHandler.UpdateLabel)
			labels.DELETE("/:id", ownLabel, deps.LabelHandler.DeleteLabel)
		}

		tasks := api.Group("/tasks")
		{
			// The share read is the only unauthenticated task route.
			tasks.GET("/share/:token", deps.ShareHandler.SharedTask)

			authed := tasks.Group("", authGate)
			{
				authed.POST("", deps.TaskHandler.CreateTask)
				authed.GET("", deps.TaskHandler.GetTasks)
				authed.GET("/groupByLabels", deps.TaskHandler.GroupByLabels)
				authed.PUT("/generateTaskLink/:id", ownTask, deps.ShareHandler.GenerateTaskLink)
				authed.GET("/:id", ownTask, deps.TaskHandler.GetTask)
				authed.PATCH("/:id", ownTask, deps.TaskHandler.UpdateTask)
				authed.DELETE("/:id", ownTask, deps.TaskHandler.DeleteTask)
			}
		}
	}

	return r
}
