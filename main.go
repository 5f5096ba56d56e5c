package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/access"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/config"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/db"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/handlers"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/middleware"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/observability"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/presence"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/rabbitmq"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/scheduler"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/storage"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/summary"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/ws"
)

const serviceName = "chat-rappiprofe"

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	// Event mirror and audit share the broker; both degrade to no-ops
	// without an AMQP url so the service runs standalone.
	if cfg.AMQPURL != "" {
		mirror, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to connect to amqp: %v", err)
		}
		defer mirror.Close()
		observability.SetPublisher(mirror)
	}
	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	intakeRepo := repositories.NewIntakeRepo(database)

	hub := ws.NewHub()
	tracker := presence.NewTracker()
	defer tracker.Stop()

	gate := access.NewGate(groupRepo)
	maintainer := summary.NewMaintainer(conversationRepo, groupRepo)
	publisher := fanout.NewPublisher(hub)
	deletions := scheduler.New(groupRepo, publisher)
	defer deletions.Stop()

	blobs := storage.NewDisk(cfg.StorageRoot, cfg.StorageBase)

	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, groupRepo, maintainer, publisher, blobs, audit)
	reactionHandler := handlers.NewReactionHandler(reactionRepo, messageRepo, userRepo, groupRepo, publisher)
	groupHandler := handlers.NewGroupHandler(groupRepo, userRepo, publisher, deletions, audit, cfg.GroupDeleteDelay)
	conversationHandler := handlers.NewConversationHandler(userRepo, groupRepo)
	userHandler := handlers.NewUserHandler(userRepo, audit)
	intakeHandler := handlers.NewIntakeHandler(intakeRepo, userRepo, publisher)

	subscribeWS := ws.NewSubscribeHandler(hub, gate, tracker, userRepo, []byte(cfg.JWTSecret))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/intake", intakeHandler.Create)
	router.GET("/ws", subscribeWS.Handle)
	router.Static("/storage", cfg.StorageRoot)

	authed := router.Group("/", middleware.AuthMiddleware([]byte(cfg.JWTSecret)))

	authed.GET("/conversations", conversationHandler.List)
	authed.GET("/advisors", conversationHandler.Advisors)

	authed.POST("/messages", messageHandler.Send)
	authed.DELETE("/messages/:message_id", messageHandler.Delete)
	authed.GET("/messages/user/:user_id", messageHandler.ListDirect)
	authed.GET("/messages/group/:group_id", messageHandler.ListGroup)

	authed.PUT("/messages/:message_id/reaction", reactionHandler.React)
	authed.DELETE("/messages/:message_id/reaction", reactionHandler.Remove)
	authed.GET("/messages/:message_id/reactions", reactionHandler.List)

	authed.POST("/groups", groupHandler.Create)
	authed.PUT("/groups/:group_id/asesor", groupHandler.ReassignAdvisor)
	authed.PUT("/groups/:group_id/status", groupHandler.ChangeStatus)
	authed.PUT("/groups/:group_id/members", groupHandler.ReplaceMembers)
	authed.DELETE("/groups/:group_id", groupHandler.ScheduleDeletion)

	authed.POST("/users", userHandler.Create)
	authed.PUT("/users/:user_id/admin", userHandler.ToggleAdmin)
	authed.PUT("/users/:user_id/asesor", userHandler.ToggleAsesor)
	authed.PUT("/users/:user_id/blocked", userHandler.ToggleBlocked)

	if cfg.DebugRoutes {
		debugHandler := handlers.NewDebugHandler(audit)
		authed.POST("/debug/audit-test", debugHandler.AuditTest)
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
