package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"a2g/internal/config"
	"a2g/internal/database"
	"a2g/internal/logger"
	"a2g/internal/orchestrator/payments"
	"a2g/internal/pgmq"
	"a2g/internal/pubsub"
	"a2g/internal/repository"
	"a2g/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "payments", "Orchestrator mode: payments")
	flag.Parse()

	logger := logger.New("orchestrator")

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	queueDB, err := database.OpenQueueDB(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to open queue DB: %v", err)
	}
	defer queueDB.Close()
	pgmqClient := pgmq.New(queueDB)
	logger.Info().Msg("PGMQ client initialized")

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB pool: %v", err)
	}
	defer pool.Close()

	events := pubsub.NopEmitter()
	if cfg.GCPProjectID != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		defer pub.Close()
		events = pubsub.NewEmitter(pub, cfg.PubSubEventsTopic, logger)
	}

	userRepo := repository.NewUserRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	verifier, err := service.NewGatewayVerifier(ctx, cfg, paymentRepo, userRepo, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build payment verifier: %v", err)
	}
	paymentService := service.NewPaymentService(verifier, paymentRepo, pgmqClient, cfg.PaymentQueueName, events, logger)
	dlqService := service.NewDLQService(repository.NewDLQRepository(pool))

	var runErr error
	switch *mode {
	case "payments":
		runErr = payments.Run(ctx, logger, pgmqClient, paymentService, dlqService, payments.Options{
			Queue:            cfg.PaymentQueueName,
			VisibilitySec:    cfg.PaymentVisibilityTimeout,
			MaxMessages:      cfg.PaymentPollMaxMsg,
			PollSec:          cfg.PaymentPollTimeoutSec,
			MaxRetries:       cfg.PaymentMaxRetries,
			DeadLetterSource: cfg.PaymentDeadLetterSubName,
		})
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
