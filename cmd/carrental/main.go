package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"carrental/internal/app/commands"
	"carrental/internal/app/dto"
	draftsapp "carrental/internal/app/handlers/drafts"
	imagesapp "carrental/internal/app/handlers/images"
	paymentsapp "carrental/internal/app/handlers/payments"
	quoteapp "carrental/internal/app/handlers/quote"
	refundsapp "carrental/internal/app/handlers/refunds"
	"carrental/internal/app/middleware"
	appoutbox "carrental/internal/app/outbox"
	"carrental/internal/app/policies"
	"carrental/internal/app/queries"
	"carrental/internal/infra/backend"
	"carrental/internal/infra/broker/kafka"
	"carrental/internal/infra/cache"
	"carrental/internal/infra/config"
	mongodb "carrental/internal/infra/db/mongo"
	stripegw "carrental/internal/infra/gateway/stripe"
	ginserver "carrental/internal/infra/http/gin"
	"carrental/internal/infra/obs"
	infraoutbox "carrental/internal/infra/outbox"
	"carrental/internal/infra/security"
	"carrental/internal/infra/storage/memory"
	"carrental/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV"), "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: app.metrics}, app.health, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := app.worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		app.pruneDrafts(gctx, cfg.DraftTTL, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
	}
	app.drafts.Wait()
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	metrics    *obs.Metrics
	worker     *infraoutbox.Worker
	drafts     *draftsapp.Service
	draftStore *memory.DraftStore
	closers    []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{metrics: obs.NewMetrics(), health: obs.HealthHandlers{Checks: map[string]obs.ReadinessCheck{}}}

	rental := &backend.Client{
		HTTP:     &http.Client{Timeout: cfg.BackendTimeout},
		BaseURL:  cfg.BackendURL,
		Currency: cfg.Currency,
		Logger:   logger,
	}

	listCache := app.buildCache(ctx, cfg, logger)
	idStore, box, outboxStore, err := app.buildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	producer, err := app.buildProducer(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.worker = &infraoutbox.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	var gateway policies.PaymentGateway
	if cfg.StripeAPIKey != "" {
		gw, err := stripegw.NewGateway(cfg.StripeAPIKey, logger)
		if err != nil {
			return nil, err
		}
		gateway = gw
	} else {
		logger.Warn("stripe api key not set, payment completion disabled")
	}

	var images policies.ImageHost = s3.NoopImageHost{}
	if cfg.S3Endpoint != "" {
		host, err := s3.NewImageHost(s3.Config{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		images = host
	}

	encoder := appoutbox.JSONEventEncoder{}
	loader := &paymentsapp.Loader{Backend: rental, Cache: listCache, Logger: logger}
	app.draftStore = memory.NewDraftStore()
	app.drafts = &draftsapp.Service{
		Backend:      rental,
		Store:        app.draftStore,
		Cache:        listCache,
		Outbox:       box,
		Encoder:      encoder,
		Metrics:      app.metrics,
		Logger:       logger,
		CheckTimeout: cfg.AvailabilityTimeout,
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	app.drafts.Register(commandBus, queryBus)
	queries.Register(queryBus, queries.Handler[quoteapp.ComputeQuery, *dto.Quote](quoteapp.ComputeHandler{}))
	queries.Register(queryBus, queries.Handler[paymentsapp.ListQuery, *dto.PaymentCollection](&paymentsapp.ListHandler{Loader: loader}))
	commands.Register(commandBus, commands.Handler[paymentsapp.CompleteCommand, *dto.CompletePaymentResult](&paymentsapp.CompleteHandler{
		Loader:  loader,
		Backend: rental,
		Gateway: gateway,
		Outbox:  box,
		Encoder: encoder,
		Metrics: app.metrics,
		Logger:  logger,
	}))
	commands.Register(commandBus, commands.Handler[refundsapp.RequestCommand, *dto.RefundResult](&refundsapp.RequestHandler{
		Loader:  loader,
		Backend: rental,
		Outbox:  box,
		Encoder: encoder,
		Metrics: app.metrics,
		Logger:  logger,
	}))
	commands.Register(commandBus, commands.Handler[imagesapp.UploadCommand, *policies.UploadedImage](&imagesapp.UploadHandler{
		Host:   images,
		NewID:  uuid.NewString,
		Logger: logger,
	}))

	logger.Debug("bus handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	authorizer := middleware.SessionAuthorizer{}
	validator := middleware.MessageValidator{}
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.ObserveCommands(app.metrics, logger),
		middleware.Authorization(authorizer),
		middleware.Validation(validator),
		middleware.Idempotency(idStore, nil, logger),
		middleware.OutboxFlush(box, logger),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.ObserveQueries(app.metrics, logger),
		middleware.QueryAuthorization(authorizer),
		middleware.QueryValidation(validator),
	)

	verifier := security.TokenVerifier{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	app.handlers = ginserver.Handlers{
		Drafts:         ginserver.DraftHandler{Commands: cmds, Queries: qs, Currency: cfg.Currency},
		Quote:          ginserver.QuoteHandler{Queries: qs, Currency: cfg.Currency},
		Payments:       ginserver.PaymentHandler{Commands: cmds, Queries: qs},
		Refunds:        ginserver.RefundHandler{Commands: cmds, Currency: cfg.Currency},
		Images:         ginserver.ImageHandler{Commands: cmds},
		Metrics:        app.metrics.Handler(),
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: verifier, Logger: logger}.Handle,
	}
	return app, nil
}

func (a *application) buildCache(ctx context.Context, cfg config.Config, logger *slog.Logger) policies.ListCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	rc := cache.NewRedis(client, "carrental", cfg.CacheTTL)
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, list cache kept in memory", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return cache.NewMemory(cfg.CacheTTL)
	}
	a.health.Checks["redis"] = rc.Ping
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return rc
}

func (a *application) buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (middleware.IdempotencyStore, appoutbox.Outbox, infraoutbox.Store, error) {
	if cfg.MongoURI == "" {
		logger.Info("mongo not configured, using in-memory idempotency and outbox")
		box := memory.NewOutbox()
		return memory.NewIdempotencyStore(cfg.IdempotencyTTL), box, box, nil
	}
	client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB, 10*time.Second)
	if err != nil {
		return nil, nil, nil, err
	}
	a.health.Checks["mongo"] = client.Ping
	a.closers = append(a.closers, client.Close)
	idStore, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	box, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	return idStore, box, box, nil
}

func (a *application) buildProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka not configured, events are logged only")
		return infraoutbox.LogProducer{Logger: logger}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, "carrental")
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
	return producer, nil
}

// pruneDrafts drops abandoned booking drafts until ctx ends.
func (a *application) pruneDrafts(ctx context.Context, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.draftStore.Prune(now, ttl); n > 0 {
				logger.Debug("expired drafts pruned", "count", n)
			}
		}
	}
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}
