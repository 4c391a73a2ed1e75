package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/app/background"
	"github.com/smmpanel/campaign-distribution-service/internal/config"
	"github.com/smmpanel/campaign-distribution-service/internal/delivery/http/handlers"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/binom"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/logger"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/metrics"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/migrate"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/repository"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/resilience"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/assignment"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/recovery"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/statsync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)
	if cfg.CampaignDB.MigrationsPath != "" {
		if err := migrate.Run(db, cfg.CampaignDB.MigrationsPath); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init kafka
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := kafka.NewDefaultKafkaPublisher(brokers)
	sub := kafka.NewDefaultKafkaSubscriber(brokers)

	// Init repositories
	orderRepo := repository.NewDefaultOrderRepository(db)
	campaignRepo := repository.NewDefaultFixedCampaignRepository(db)
	coefficientRepo := repository.NewDefaultCoefficientRepository(db)
	assignmentRepo := repository.NewDefaultAssignmentRepository(db)

	// Init audit trail
	audit, err := logger.NewPGAuditLogger(db)
	if err != nil {
		log.Fatalf("failed to init audit logger: %v", err)
	}

	// Init metrics
	distributionMetrics := metrics.NewDistributionMetrics()

	// Init resilience-wrapped platform gateway
	binomClient := binom.NewClient(cfg.BinomAPI.URL, cfg.BinomAPI.APIKey, cfg.BinomAPI.Timeout)
	registry := resilience.NewDefaultRegistry(cfg.Distribution.BreakerThreshold, cfg.Distribution.BreakerCooldown)
	executor := resilience.NewExecutor(registry, resilience.RetryPolicy{
		MaxAttempts: cfg.Distribution.GatewayMaxAttempts,
		Delay:       cfg.Distribution.GatewayRetryDelay,
		MaxDelay:    cfg.Distribution.BreakerCooldown,
		Multiplier:  2.0,
	})
	executor.ObserveCall = func(operation, outcome string, elapsed time.Duration) {
		distributionMetrics.ExternalCallDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
	}
	executor.ObserveState = func(operation string, state resilience.State) {
		distributionMetrics.CircuitState.WithLabelValues(operation).Set(float64(state))
	}
	gateway := binom.NewGateway(binomClient, executor, audit)

	// Init distribution usecase
	resolver := assignment.NewCoefficientResolver(coefficientRepo, decimal.NewFromFloat(cfg.Distribution.DefaultCoefficient))
	selector := assignment.NewCampaignPoolSelector(campaignRepo)
	assignmentUsecase := assignment.NewDefaultAssignmentUsecase(
		orderRepo,
		assignmentRepo,
		resolver,
		selector,
		gateway,
		pub,
		audit,
		distributionMetrics,
		assignment.Config{
			Timeout:         cfg.Distribution.AssignmentTimeout,
			MaxRetries:      cfg.Distribution.MaxRetries,
			AssignmentTopic: cfg.KafkaService.AssignmentTopic,
		},
	)

	// Init recovery engine
	recoveryEngine := recovery.NewDefaultRecoveryEngine(
		orderRepo,
		pub,
		audit,
		distributionMetrics,
		recovery.Config{
			MaxRetries:      cfg.Distribution.MaxRetries,
			InitialDelay:    cfg.Distribution.RetryInitialDelay,
			MaxDelay:        cfg.Distribution.RetryMaxDelay,
			BackoffFactor:   cfg.Distribution.RetryBackoffFactor,
			DeadLetterTopic: cfg.KafkaService.DeadLetterTopic,
		},
	)

	// Init stats syncer
	syncer := statsync.NewMetricsSyncer(assignmentRepo, orderRepo, gateway, distributionMetrics)

	// Order intake
	if err := background.StartOrderConsumer(
		ctx,
		sub,
		cfg.KafkaService.OrderReadyTopic,
		cfg.KafkaService.ConsumerGroupID,
		assignmentUsecase,
		recoveryEngine,
	); err != nil {
		log.Fatalf("failed to start order consumer: %v", err)
	}

	// Retry scanner
	background.StartRetryScanner(
		ctx,
		orderRepo,
		assignmentUsecase,
		recoveryEngine,
		cfg.Distribution.RetryScanInterval,
		cfg.Distribution.WorkerPoolSize,
	)

	// Stats sync
	background.StartStatsSync(ctx, syncer, cfg.Distribution.StatsSyncInterval)

	// Metrics endpoint
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.MetricsPort, nil); err != nil {
			log.Printf("metrics endpoint stopped: %v", err)
		}
	}()

	// Admin API
	adminHandler := handlers.NewAdminHandler(recoveryEngine, orderRepo, assignmentRepo, gateway)
	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	go func() {
		if err := http.ListenAndServe(addr, adminHandler.Router()); err != nil {
			log.Fatalf("admin api stopped: %v", err)
		}
	}()

	log.Printf("campaign distribution service started on %s, metrics on :%s\n", addr, cfg.MetricsPort)
	<-ctx.Done()
	log.Println("shutting down")
}
