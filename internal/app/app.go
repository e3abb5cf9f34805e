package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "projectdesk/docs"
	"projectdesk/internal/config"
	"projectdesk/internal/db"
	"projectdesk/internal/handlers"
	"projectdesk/internal/pdf"
	"projectdesk/internal/repositories"
	"projectdesk/internal/routes"
	"projectdesk/internal/services"
)

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	conn, err := db.Open(cfg.Database.DSN, db.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, cfg.Database.Migrate)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[app][db] close: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(conn)
	taskRepo := repositories.NewTaskRepository(conn)
	genericRepo := repositories.NewGenericTaskRepository(conn)
	activityRepo := repositories.NewActivityRepository(conn)
	relationsRepo := repositories.NewItemRelationsRepository(conn)
	linksRepo := repositories.NewTelegramLinkRepository(conn)
	projectRepo := repositories.NewProjectRepository(conn)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	tg := services.NewTelegramService(cfg.Telegram.BotToken)

	assignmentService := services.NewGenericTaskService(genericRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, activityRepo, relationsRepo, tg)

	// шрифт с кириллицей, например assets/fonts/DejaVuSans.ttf
	sheets := pdf.NewTaskSheetGenerator(cfg.Files.RootDir, cfg.Files.FontPath)

	// === Handlers ===
	secret := []byte(cfg.Auth.JWTSecret)
	authHandler := handlers.NewAuthHandler(userRepo, secret, cfg.Auth.AccessTTL)
	assignmentHandler := handlers.NewGenericTaskHandler(assignmentService)
	taskHandler := handlers.NewTaskHandler(taskService, sheets)
	var integrationsHandler *handlers.IntegrationsHandler
	if tg.Enabled() {
		integrationsHandler = handlers.NewIntegrationsHandler(tg, linksRepo, userRepo, assignmentService, cfg.Telegram.WebhookSecret)
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Роуты (JWT/RBAC — внутри SetupRoutes)
	routes.SetupRoutes(router, secret, authHandler, assignmentHandler, taskHandler, integrationsHandler)

	// === Digest worker ===
	digestDone := make(chan struct{})
	if cfg.Digest.Enabled {
		digest := services.NewOverdueDigest(assignmentService, emailService, cfg.Digest.Interval, cfg.Digest.MaxItems)
		go func() {
			defer close(digestDone)
			digest.Run(ctx)
		}()
	} else {
		close(digestDone)
	}

	// === Run ===
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-digestDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[app] shutdown: %v", err)
	}
	<-digestDone
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
