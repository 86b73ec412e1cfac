package app

import (
	"time"

	"github.com/haflows/tasknotify/internal/ai"
	"github.com/haflows/tasknotify/internal/auth"
	"github.com/haflows/tasknotify/internal/cache"
	"github.com/haflows/tasknotify/internal/config"
	"github.com/haflows/tasknotify/internal/handlers"
	"github.com/haflows/tasknotify/internal/notify"
	"github.com/haflows/tasknotify/internal/repo"
	"github.com/haflows/tasknotify/internal/service"
	"github.com/haflows/tasknotify/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, logger *zap.Logger, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	// Outbound clients.
	lineClient := notify.NewLineClient(notify.LineConfig{
		ChannelAccessToken: cfg.Line.ChannelAccessToken,
		BaseURL:            cfg.Line.BaseURL,
		Timeout:            cfg.Line.Timeout.Duration(),
	})
	emailClient := notify.NewEmailClient(notify.EmailConfig{
		APIKey:  cfg.Resend.APIKey,
		From:    cfg.Resend.From,
		BaseURL: cfg.Resend.BaseURL,
		Timeout: cfg.Resend.Timeout.Duration(),
	})
	summarizer := ai.NewSummarizer(ai.NewClient(ai.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout.Duration(),
	}))
	dispatcher := notify.NewDispatcher(emailClient, lineClient, logger)

	// Store gateways. adminRepo is the elevated handle: only the digest
	// batch flow and the webhook ingestor receive it.
	userRepo := repo.NewPGUserRepo(db)
	profileRepo := repo.NewPGProfileRepo(db)
	taskRepo := repo.NewPGTaskRepo(db)
	adminRepo := repo.NewPGAdminRepo(db)

	sessionStore := auth.NewStore(rdb, 24*time.Hour)
	userSvc := service.NewUserService(userRepo, profileRepo)
	authHandler := handlers.NewAuthHandler(sessionStore, userSvc)
	registerAuthRoutes(api, authHandler)

	digestSvc := service.NewDigestService(taskRepo, profileRepo, adminRepo, summarizer, dispatcher,
		service.DigestOptions{
			DebugLineID:      cfg.Line.DebugUserID,
			BatchConcurrency: cfg.Digest.BatchConcurrency,
		}, logger)
	digestHandler := handlers.NewDigestHandler(digestSvc, sessionStore, cfg.Digest.CronSecret)
	api.GET("/digest", digestHandler.Run)
	api.POST("/digest", digestHandler.Run)

	sendTestHandler := handlers.NewSendTestHandler(emailClient, lineClient, cfg.Line.DebugUserID, cfg.Digest.CronSecret)
	api.POST("/send-email", sendTestHandler.SendEmail)
	api.POST("/send-line", sendTestHandler.SendLine)

	ingestor := webhook.NewIngestor(adminRepo, lineClient, logger)
	webhookHandler := handlers.NewWebhookHandler(ingestor, cfg.Line.ChannelSecret, logger)
	api.POST("/webhook/line", webhookHandler.Handle)

	protected := api.Group("", auth.RequireSession(sessionStore))
	taskCache := cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	taskSvc := service.NewTaskService(taskRepo, taskCache)
	taskHandler := handlers.NewTaskHandler(taskSvc)
	registerTaskRoutes(protected, taskHandler)

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.SaveProfile)

	analyzeHandler := handlers.NewAnalyzeHandler(summarizer)
	protected.POST("/analyze-task", analyzeHandler.Analyze)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "AI Smart Task Notifier",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.List)
	api.GET("/tasks/pending", h.Pending)
	api.GET("/tasks/:id", h.GetByID)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
	api.POST("/tasks/:id/toggle", h.Toggle)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/logout", h.Logout)
}
