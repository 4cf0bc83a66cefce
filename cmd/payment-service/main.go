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
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/metao1/online-store-go/internal/payment/app"
	"github.com/metao1/online-store-go/internal/payment/domain"
	"github.com/metao1/online-store-go/internal/payment/gateway"
	"github.com/metao1/online-store-go/internal/payment/httpapi"
	"github.com/metao1/online-store-go/internal/payment/repo"
	"github.com/metao1/online-store-go/pkg/config"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/httpx"
	"github.com/metao1/online-store-go/pkg/inbox"
	"github.com/metao1/online-store-go/pkg/kafka"
	"github.com/metao1/online-store-go/pkg/logging"
	"github.com/metao1/online-store-go/pkg/metrics"
	"github.com/metao1/online-store-go/pkg/outbox"
)

func main() {
	cfg, err := config.Load("payment-service")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New("payment-service", cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	translator := app.NewTranslator()
	payments := repo.NewPayments(pool, translator)
	authorizer := gateway.NewSimulated(0.1, 50*time.Millisecond)
	svc := app.NewService(payments, authorizer, domain.DefaultLimits(), logger)

	srvMetrics := metrics.NewServerMetrics("payment_service")
	conMetrics := metrics.NewConsumerMetrics("payment_service")

	client := kafka.NewClient(cfg.KafkaBrokers)
	if client.Enabled() {
		publisher := kafka.NewPublisher(client)
		defer publisher.Close()

		relay := &outbox.Relay{
			Pool:      pool,
			Publisher: publisher,
			Logger:    logger,
			Interval:  cfg.OutboxInterval,
			BatchSize: cfg.OutboxBatch,
		}
		go relay.Run(ctx)

		defaultMethod := domain.PaymentMethod{Type: domain.MethodCard, Details: "on-file"}
		consumer := app.NewConsumer(svc, inbox.NewPostgresLedger(pool), conMetrics, defaultMethod, logger)
		go (&kafka.Consumer{
			Client:     client,
			Topic:      events.TopicOrders,
			GroupID:    cfg.ConsumerGroup,
			Logger:     logger,
			MaxRetries: cfg.ConsumerRetries,
			Backoff:    cfg.ConsumerBackoff,
		}).Run(ctx, consumer.HandleOrderEvent)
	} else {
		logger.Warn("kafka disabled, running without relay and consumers")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpx.Metrics(srvMetrics))
	httpx.Health(r, func() error { return pool.Ping(context.Background()) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	httpapi.NewHandler(svc).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("payment-service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
