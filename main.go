package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/calls"
	"messenger-service/internal/chat"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/logging"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/presence"
	"messenger-service/internal/push"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/tracing"
	"messenger-service/internal/ws"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	if cfg.OTEL.Enabled {
		shutdown, err := tracing.Setup(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("tracing setup failed")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("tracing shutdown failed")
			}
		}()
	}

	database, err := db.Connect(cfg.DBDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()

	notifier := push.NewQueueNotifier(publisher, cfg.PushRoutingKey, log)
	auditEmitter := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.OTEL.ServiceName, cfg.Environment, log)

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	chatListRepo := repositories.NewChatListRepo(database)
	callRepo := repositories.NewCallRepo(database)

	hub := ws.NewHub(log)
	tracker := presence.NewTracker(userRepo, hub, log)

	lifecycle := chat.NewLifecycle(messageRepo, chatListRepo, userRepo, hub, notifier, log)
	projector := chat.NewProjector(chatListRepo, userRepo)
	engine := calls.NewEngine(callRepo, userRepo, hub, cfg.CallOfferTTL, log)

	chatHandler := handlers.NewChatHandler(lifecycle, projector, messageRepo)
	callHandler := handlers.NewCallHandler(engine)
	socket := ws.NewSocketHandler(hub, tracker, lifecycle, engine, userRepo, publisher, []byte(cfg.JWTSecret), log)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTEL.Enabled {
		router.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	auth := middleware.Auth([]byte(cfg.JWTSecret))

	router.GET("/chats", auth, chatHandler.ListChats)
	router.GET("/chats/:chat_id/messages", auth, chatHandler.GetChatMessages)
	router.POST("/chats/messages", auth, chatHandler.PostMessage)
	router.POST("/chats/:chat_id/read", auth, chatHandler.MarkChatRead)
	router.PATCH("/messages/:message_id/status", auth, chatHandler.UpdateMessageStatus)
	router.GET("/calls", auth, callHandler.ListCalls)

	router.GET("/ws", socket.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("messenger service starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
