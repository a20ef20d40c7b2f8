// Package main runs the consultation booking HTTP server with the
// moderator WebSocket feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/believe-consult/backend/config"
	"github.com/believe-consult/backend/internal/approvals"
	"github.com/believe-consult/backend/internal/auth"
	"github.com/believe-consult/backend/internal/bookings"
	"github.com/believe-consult/backend/internal/directory"
	"github.com/believe-consult/backend/internal/middleware"
	"github.com/believe-consult/backend/internal/notify"
	"github.com/believe-consult/backend/internal/realtime"
	"github.com/believe-consult/backend/internal/session"
	"github.com/believe-consult/backend/pkg/database"
	"github.com/believe-consult/backend/pkg/queue"
	"github.com/believe-consult/backend/pkg/redis"
	"github.com/believe-consult/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	defer hub.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	dispatcher := notify.NewQueueDispatcher(jobQueue, logger)

	storeTimeout := time.Duration(cfg.Core.StoreTimeoutSec) * time.Second

	// Approvals (durable OTP codes)
	approvalRepo := approvals.NewRepository(pool)
	approvalSvc := approvals.NewService(approvalRepo, time.Duration(cfg.Core.OTPExpireMinutes)*time.Minute)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, approvalSvc, dispatcher, logger)

	// Provider directory
	directoryRepo := directory.NewRepository(pool)
	directoryHandler := directory.NewHandler(directoryRepo)

	// Booking lifecycle
	bookingRepo := bookings.NewRepository(pool)
	bookingSvc := bookings.NewService(bookingRepo, directoryRepo, dispatcher, hub, storeTimeout, logger)
	bookingHandler := bookings.NewHandler(bookingSvc)

	// Session pairing (join credentials for accepted bookings)
	gate := session.NewGate(bookingSvc, logger)
	pairing := session.NewPairing(cfg.RTC)
	sessionHandler := session.NewHandler(gate, pairing, logger)

	// Notification delivery (same binary; the queue hands each job to one
	// consumer so running cmd/worker alongside is safe)
	notifyRepo := notify.NewRepository(pool)
	notifyHandler := notify.NewHandler(notifyRepo)
	sender := notify.NewSMTPSender(cfg.Email)
	processor := notify.NewProcessor(jobQueue, notifyRepo, sender, bookingRepo, logger)

	jwtValidate := func(token string) (email, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.Email, claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health and metrics
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/send-otp", authHandler.SendOTP)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Public booking surface: anyone may request a booking or check its
	// status; creation is rate limited per client IP.
	router.POST("/bookings", middleware.RateLimit(cfg.Core.CreateRatePerMin, 5), bookingHandler.Create)
	router.GET("/bookings/:id/status", bookingHandler.GetStatus)

	// Provider directory (list is public, create is admin)
	router.GET("/providers", directoryHandler.List)

	// Session pairing: authenticated callers get role/email from verified
	// claims; anonymous callers fall back to query parameters.
	router.GET("/sessions/pair-token", middleware.OptionalJWT(jwtService), sessionHandler.PairToken)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.POST("/providers", middleware.RequireRole("admin"), directoryHandler.Create)

		api.GET("/bookings", middleware.RequireRole("admin", "moderator"), bookingHandler.List)
		api.GET("/bookings/:id", middleware.RequireRole("admin", "moderator"), bookingHandler.GetByID)
		api.PUT("/bookings/:id", middleware.RequireRole("admin", "moderator"), bookingHandler.Update)
		api.GET("/bookings/:id/notifications", middleware.RequireRole("admin", "moderator"), notifyHandler.ListByBooking)
		api.DELETE("/bookings/:id", bookingHandler.Cancel)
		api.GET("/bookings/user/:email", bookingHandler.ListByUser)
	}

	// WebSocket booking feed (token in query; moderator/admin only)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background notification delivery
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go processor.Run(workerCtx)
	logger.Info("notification worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
