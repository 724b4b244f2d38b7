package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tiendaflex/collections-engine/internal/config"
	"github.com/tiendaflex/collections-engine/internal/repository"
	"github.com/tiendaflex/collections-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info("Starting collections scheduler...")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	saleRepo := repository.NewSaleRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	collectionsService := service.NewCollectionsService(saleRepo, paymentRepo, redisClient, cfg, logger)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Warnf("Unknown timezone %q, falling back to local", cfg.Scheduler.Timezone)
		location = time.Local
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	setupCronJobs(c, collectionsService, logger)

	c.Start()
	logger.Info("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	c.Stop()
	logger.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, svc *service.CollectionsService, logger *logrus.Logger) {
	// Daily sweep at midnight: report installments whose due date has passed.
	// Overdue is a derived state, so the sweep only logs; nothing is written.
	_, err := c.AddFunc("0 0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := svc.ReportOverdue(ctx)
		if err != nil {
			logger.WithError(err).Error("overdue sweep failed")
			return
		}
		logger.WithField("overdue", count).Info("overdue sweep finished")
	})
	if err != nil {
		logger.WithError(err).Error("Error scheduling overdue sweep job")
	}

	// Morning reminders for installments due within the configured lead days.
	_, err = c.AddFunc("0 0 9 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := svc.ReportUpcoming(ctx)
		if err != nil {
			logger.WithError(err).Error("reminder job failed")
			return
		}
		logger.WithField("upcoming", count).Info("reminder job finished")
	})
	if err != nil {
		logger.WithError(err).Error("Error scheduling reminder job")
	}

	logger.Info("Cron jobs scheduled successfully")
}
