package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"a2g/internal/api/v1/handler"
	"a2g/internal/config"
	"a2g/internal/database"
	"a2g/internal/middleware"
	"a2g/internal/pgmq"
	"a2g/internal/pubsub"
	"a2g/internal/quiz"
	"a2g/internal/repository"
	"a2g/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New connects every backing service and returns the API handler together
// with a function releasing those connections.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. Databases
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, pool.Close)
	logger.Info().Msg("Database connection successful")

	queueDB, err := database.OpenQueueDB(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { queueDB.Close() })

	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { redisClient.Close() })

	// 2. Object storage for note files
	s3Client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	// 3. Domain events
	events := pubsub.NopEmitter()
	if cfg.GCPProjectID != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { pub.Close() })
		events = pubsub.NewEmitter(pub, cfg.PubSubEventsTopic, logger)
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set; domain events are disabled")
	}

	// 4. Repositories
	userRepo := repository.NewUserRepo(pool)
	itemRepo := repository.NewItemRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	resultRepo := repository.NewResultRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)
	sessionStore := repository.NewRedisSessionStore(redisClient, cfg.SessionTTL())

	// 5. Services
	verifier, err := service.NewGatewayVerifier(ctx, cfg, paymentRepo, userRepo, logger)
	if err != nil {
		return fail(fmt.Errorf("payment verifier: %w", err))
	}
	scoring := quiz.Scoring{PointsPerCorrect: cfg.ScorePointsCorrect, PointsPerIncorrect: cfg.ScorePointsIncorrect}

	userService := service.NewUserService(userRepo)
	accessService := service.NewAccessService(userRepo, itemRepo, s3Client, cfg.S3Bucket, logger)
	quizService := service.NewQuizService(accessService, questionRepo, sessionStore, resultRepo, events, scoring, logger)
	paymentService := service.NewPaymentService(verifier, paymentRepo, pgmq.New(queueDB), cfg.PaymentQueueName, events, logger)
	adminService := service.NewAdminService(userRepo, itemRepo, logger)
	dlqService := service.NewDLQService(dlqRepo)

	// 6. Handlers
	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := Handlers{
		User:    handler.NewUserHandler(userService, quizService, logger),
		Item:    handler.NewItemHandler(accessService, logger),
		Quiz:    handler.NewQuizHandler(quizService, validate, logger),
		Payment: handler.NewPaymentHandler(paymentService, logger),
		Admin:   handler.NewAdminHandler(adminService, validate, logger),
		DLQ:     handler.NewDLQHandler(dlqService, logger),
	}

	return NewHandler(cfg, handlers, logger), cleanup, nil
}

// NewHandler mounts the API under /v1 behind CORS and request logging.
func NewHandler(cfg *config.Config, handlers Handlers, logger zerolog.Logger) http.Handler {
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(
		cfg.IsLocalDev(),
		cfg.DLQEndpointURL,
		cfg.PubSubPushServiceAccountEmail,
		nil,
		logger,
	)

	chiRouter, api := SetupHumaAPI(cfg, authMiddleware, pubsubAuthMiddleware, logger)
	RegisterRoutes(api, handlers, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", chiRouter))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux))
}

// NewS3Client returns a path-style client for the S3 compatible notes bucket.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("load S3 config: %w", err)
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
