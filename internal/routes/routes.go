package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projectdesk/internal/authz"
	"projectdesk/internal/handlers"
	"projectdesk/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	assignmentHandler *handlers.GenericTaskHandler,
	taskHandler *handlers.TaskHandler,
	integrationsHandler *handlers.IntegrationsHandler, // может быть nil
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Telegram webhook публикуем только если есть интеграция
	if integrationsHandler != nil {
		r.POST("/integrations/telegram/webhook", integrationsHandler.Webhook)
	}

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtSecret))
	r.Use(middleware.ReadOnlyGuard())

	if integrationsHandler != nil {
		r.POST("/integrations/telegram/request-link", integrationsHandler.RequestTelegramLink)
	}

	// ASSIGNMENTS (tasks, bugs, risks, milestones)
	assignments := r.Group("/assignments")
	{
		assignments.GET("", assignmentHandler.Search)
		assignments.GET("/count", assignmentHandler.Count)
		assignments.GET("/overdue/accounts", assignmentHandler.OverdueAccounts)
		assignments.GET("/overdue/projects", assignmentHandler.OverdueProjects)
		assignments.GET("/:type/:id", assignmentHandler.FindOne)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", middleware.RequireRoles(authz.ElevatedRoles...), taskHandler.Delete)
		tasks.GET("/:id/detail", taskHandler.GetDetail)
		tasks.POST("/:id/status", taskHandler.ChangeStatus)
		tasks.POST("/:id/toggle", taskHandler.Toggle)
		tasks.GET("/:id/subtasks/open-count", taskHandler.OpenSubTaskCount)
		tasks.POST("/:id/subtasks/close", taskHandler.CloseSubTasks)
		tasks.POST("/:id/assign", taskHandler.Assign)
		tasks.GET("/:id/print", taskHandler.Print)
	}

	return r
}
