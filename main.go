package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rental-service/internal/booking"
	"rental-service/internal/config"
	"rental-service/internal/db"
	"rental-service/internal/handlers"
	"rental-service/internal/identity"
	"rental-service/internal/messaging"
	"rental-service/internal/middleware"
	"rental-service/internal/notify"
	"rental-service/internal/observability"
	"rental-service/internal/rabbitmq"
	"rental-service/internal/realtime"
	"rental-service/internal/repositories"
	"rental-service/internal/telemetry"
	"rental-service/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	mode, reason := rabbitmq.Mode(publisher)
	log.Printf("amqp publisher mode=%s reason=%s", mode, reason)
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit.rental-service", cfg.ServiceName, cfg.AppEnv)

	provider, err := newIdentityProvider(cfg)
	if err != nil {
		log.Fatalf("failed to set up identity provider: %v", err)
	}

	listingRepo := repositories.NewListingRepo(database)
	rentalRepo := repositories.NewRentalRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	var bridge notify.Broadcaster
	if cfg.RedisURL != "" {
		redisBridge, err := realtime.NewRedisBridge(ctx, cfg.RedisURL, realtime.DefaultChannel)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisBridge.Close()
		go func() {
			if err := redisBridge.Run(ctx, hub.Deliver); err != nil {
				log.Printf("redis bridge stopped: %v", err)
			}
		}()
		bridge = redisBridge
	}
	fanout := notify.NewFanout(messageRepo, hub, bridge, publisher)

	calendar := booking.NewCalendar(listingRepo, rentalRepo)
	bookingService := booking.NewService(calendar, listingRepo, rentalRepo, fanout)
	resolver := messaging.NewResolver(listingRepo, rentalRepo, conversationRepo)
	ledger := messaging.NewLedger(messageRepo, conversationRepo, rentalRepo, fanout)

	listingHandler := handlers.NewListingHandler(bookingService, calendar, audit)
	rentalHandler := handlers.NewRentalHandler(bookingService, audit)
	threadHandler := handlers.NewThreadHandler(resolver, ledger, fanout, audit)
	threadWS := ws.NewThreadWebSocketHandler(hub, ledger, provider)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	authMiddleware := middleware.AuthMiddleware(provider)

	router.GET("/listings/:listing_id", listingHandler.GetListing)
	router.GET("/listings/:listing_id/availability", listingHandler.Availability)
	router.POST("/listings/:listing_id/availability/check", listingHandler.CheckAvailability)

	api := router.Group("/", authMiddleware)
	api.POST("/listings", listingHandler.CreateListing)
	api.PATCH("/listings/:listing_id/status", listingHandler.SetListingStatus)

	api.POST("/rentals", rentalHandler.CreateRental)
	api.GET("/rentals", rentalHandler.ListRentals)
	api.GET("/rentals/:rental_id", rentalHandler.GetRental)
	api.POST("/rentals/:rental_id/transition", rentalHandler.Transition)
	api.POST("/rentals/:rental_id/payment", rentalHandler.RecordPayment)

	api.POST("/threads/resolve", threadHandler.ResolveThread)
	api.GET("/threads/:kind/:id/messages", threadHandler.ListMessages)
	api.POST("/threads/:kind/:id/messages", threadHandler.PostMessage)
	api.POST("/threads/:kind/:id/read", threadHandler.MarkRead)
	api.GET("/conversations", threadHandler.ListConversations)
	api.GET("/me/unread", threadHandler.UnreadCount)

	router.GET("/ws/threads/:kind/:id", threadWS.HandleThread)
	router.GET("/ws/me", threadWS.HandleUser)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("rental-service listening on :%s", cfg.Port)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

func newIdentityProvider(cfg config.Config) (identity.Provider, error) {
	if cfg.IdentityGRPCAddr != "" {
		return identity.DialGRPCProvider(cfg.IdentityGRPCAddr)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET or IDENTITY_GRPC_ADDR must be set")
	}
	return identity.NewJWTProvider(cfg.JWTSecret), nil
}
