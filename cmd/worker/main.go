// Package main runs the background worker: notification delivery and
// the session reminder pass.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/believe-consult/backend/config"
	"github.com/believe-consult/backend/internal/approvals"
	"github.com/believe-consult/backend/internal/bookings"
	"github.com/believe-consult/backend/internal/notify"
	"github.com/believe-consult/backend/pkg/database"
	"github.com/believe-consult/backend/pkg/queue"
	"github.com/believe-consult/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifyRepo := notify.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	sender := notify.NewSMTPSender(cfg.Email)
	processor := notify.NewProcessor(jobQueue, notifyRepo, sender, bookingRepo, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go processor.RunReminders(workerCtx, 5*time.Minute, 24*time.Hour)

	// daily sweep of long-expired approval codes
	approvalRepo := approvals.NewRepository(pool)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				n, err := approvalRepo.DeleteExpired(workerCtx)
				if err != nil {
					logger.Warn("approval cleanup failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("expired approvals removed", zap.Int64("count", n))
				}
			}
		}
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
