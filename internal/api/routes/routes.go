package routes

import (
	"time"

	"pulse-service/internal/api/handlers"
	"pulse-service/internal/api/middleware"
	"pulse-service/internal/events"
	"pulse-service/internal/hub"
	"pulse-service/internal/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	engine              *gin.Engine
	wsHandler           *handlers.WSHandler
	realtimeHandler     *handlers.RealtimeHandler
	notificationHandler *handlers.NotificationHandler
	eventHandler        *handlers.EventHandler
	rateLimitMW         *middleware.RateLimitMiddleware
	authMW              *middleware.AuthMiddleware
	jwtSecret           string
}

func NewRouter(
	h *hub.Hub,
	redisService *services.RedisService,
	notificationService *services.NotificationService,
	producer *events.EventProducer,
	jwtSecret string,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	return &Router{
		engine:              engine,
		wsHandler:           handlers.NewWSHandler(h),
		realtimeHandler:     handlers.NewRealtimeHandler(h, redisService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		eventHandler:        handlers.NewEventHandler(producer),
		rateLimitMW:         middleware.NewRateLimitMiddleware(redisService),
		authMW:              middleware.NewAuthMiddleware(jwtSecret),
		jwtSecret:           jwtSecret,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// WebSocket upgrade authenticates via query token and is capped per
	// user so a reconnect storm cannot exhaust the hub.
	api.GET("/ws",
		middleware.WSAuth(r.jwtSecret),
		r.rateLimitMW.WebSocketRateLimit(10, time.Minute),
		r.wsHandler.HandleWebSocket,
	)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		realtime := auth.Group("/realtime")
		realtime.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			realtime.GET("/stats", r.realtimeHandler.GetStats)
			realtime.GET("/users/:id/status", r.realtimeHandler.GetUserStatus)
			realtime.POST("/publish", r.realtimeHandler.Publish)
			realtime.POST("/subscriptions", r.realtimeHandler.Subscribe)
			realtime.DELETE("/subscriptions", r.realtimeHandler.Unsubscribe)
		}

		notifications := auth.Group("/notifications")
		notifications.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			notifications.GET("/", r.notificationHandler.List)
			notifications.PUT("/:id/read", r.notificationHandler.MarkRead)
		}

		eventRoutes := auth.Group("/events")
		eventRoutes.Use(r.rateLimitMW.RateLimit(300, time.Minute))
		{
			eventRoutes.POST("/", r.eventHandler.Ingest)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
