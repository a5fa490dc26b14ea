package handlers

import (
	"net/http"
	"time"

	"crm-manager/backend/internal/cache"
	"crm-manager/backend/internal/config"
	"crm-manager/backend/internal/middleware"
	"crm-manager/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB            *gorm.DB
	Cache         *cache.RedisCache
	Config        *config.Config
	RateLimiter   *middleware.RateLimiter
	Auth          services.AuthService
	Register      services.RegisterService
	Users         services.UserService
	Clients       services.ClientService
	Categories    services.CategoryService
	Tasks         services.TaskService
	Comments      services.CommentService
	Notifications services.NotificationService
	Attachments   services.AttachmentService
}

func NewRouter(rc RouterConfig) *gin.Engine {
	if rc.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	if rc.RateLimiter != nil {
		router.Use(rc.RateLimiter.Middleware())
	}
	router.Use(middleware.Authentication(rc.DB, rc.Auth, rc.Users))

	authHandler := NewAuthHandler(rc.DB, rc.Auth, rc.Register)
	userHandler := NewUserHandler(rc.DB, rc.Users)
	clientHandler := NewClientHandler(rc.DB, rc.Clients)
	categoryHandler := NewCategoryHandler(rc.DB, rc.Categories)
	taskHandler := NewTaskHandler(rc.DB, rc.Tasks)
	commentHandler := NewCommentHandler(rc.DB, rc.Comments)
	notificationHandler := NewNotificationHandler(rc.DB, rc.Notifications)
	attachmentHandler := NewAttachmentHandler(rc.DB, rc.Attachments)

	api := router.Group("/api")

	api.GET("/health", healthHandler(rc.DB, rc.Cache))

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}

	users := api.Group("/users", middleware.RequireAuth())
	{
		users.GET("", userHandler.GetUsers)
		users.GET("/:id", userHandler.GetUserByID)
		users.GET("/username/:username", userHandler.GetUserByUsername)
		users.GET("/email/:email", userHandler.GetUserByEmail)
		users.GET("/role/:role", userHandler.GetUsersByRole)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	clients := api.Group("/clients", middleware.RequireAuth())
	{
		clients.POST("", clientHandler.CreateClient)
		clients.GET("", clientHandler.GetClients)
		clients.GET("/:id", clientHandler.GetClientByID)
		clients.GET("/email/:email", clientHandler.GetClientByEmail)
		clients.GET("/check-email", clientHandler.CheckClientEmail)
		clients.PUT("/:id", clientHandler.UpdateClient)
		clients.DELETE("/:id", clientHandler.DeleteClient)
	}

	categories := api.Group("/categories", middleware.RequireAuth())
	{
		categories.POST("", categoryHandler.CreateCategory)
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategoryByID)
		categories.PUT("/:id", categoryHandler.UpdateCategory)
		categories.DELETE("/:id", categoryHandler.DeleteCategory)
	}

	tasks := api.Group("/tasks", middleware.RequireAuth())
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.GET("/user/:userId", taskHandler.GetTasksByUser)
		tasks.GET("/client/:clientId", taskHandler.GetTasksByClient)
		tasks.GET("/status/:status", taskHandler.GetTasksByStatus)
		tasks.GET("/priority/:priority", taskHandler.GetTasksByPriority)
		tasks.GET("/due-before", taskHandler.GetTasksDueBefore)
		tasks.GET("/due-after", taskHandler.GetTasksDueAfter)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
		tasks.POST("/:id/assign/:userId", taskHandler.AssignUser)
		tasks.POST("/:id/unassign/:userId", taskHandler.UnassignUser)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	comments := api.Group("/comments", middleware.RequireAuth())
	{
		comments.POST("", commentHandler.CreateComment)
		comments.GET("", commentHandler.GetComments)
		comments.GET("/:id", commentHandler.GetCommentByID)
		comments.GET("/task/:taskId", commentHandler.GetCommentsByTask)
		comments.GET("/author/:userId", commentHandler.GetCommentsByAuthor)
		comments.PUT("/:id", commentHandler.UpdateComment)
		comments.DELETE("/:id", commentHandler.DeleteComment)
		comments.DELETE("/task/:taskId", commentHandler.DeleteCommentsByTask)
	}

	notifications := api.Group("/notifications", middleware.RequireAuth())
	{
		notifications.POST("", notificationHandler.CreateNotification)
		notifications.GET("/user/:userId", notificationHandler.GetNotificationsByUser)
		notifications.GET("/user/:userId/unread", notificationHandler.GetUnreadNotificationsByUser)
		notifications.GET("/user/:userId/unread/count", notificationHandler.GetUnreadCount)
		notifications.PATCH("/:id/read", notificationHandler.MarkAsRead)
		notifications.PATCH("/user/:userId/read-all", notificationHandler.MarkAllAsRead)
		notifications.DELETE("/:id", notificationHandler.DeleteNotification)
	}

	attachments := api.Group("/attachments", middleware.RequireAuth())
	{
		attachments.POST("/upload", attachmentHandler.Upload)
		attachments.GET("/:id", attachmentHandler.GetAttachmentByID)
		attachments.GET("/:id/download", attachmentHandler.Download)
		attachments.GET("/task/:taskId", attachmentHandler.GetAttachmentsByTask)
		attachments.DELETE("/:id", attachmentHandler.DeleteAttachment)
	}

	return router
}

func healthHandler(db *gorm.DB, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "up", "cache": "up"}

		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"checks": checks,
		}

		if redisCache != nil {
			if err := redisCache.Health(); err != nil {
				checks["cache"] = "down"
			}
			body["cache_metrics"] = redisCache.Metrics()
		} else {
			checks["cache"] = "disabled"
		}

		body["status"] = http.StatusText(status)
		body["time"] = time.Now()
		c.JSON(status, body)
	}
}
