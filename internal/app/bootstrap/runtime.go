package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/events"
	httpadapter "github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/matching"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/application"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var (
		campaigns     ports.CampaignRepository
		relationships ports.RelationshipRepository
		outboxRepo    ports.OutboxRepository
		cacheStore    ports.Cache
		closers       []io.Closer
	)

	if cfg.DevMode {
		repos := memory.NewRepositories()
		campaigns = repos.Campaigns
		relationships = repos.Relationships
		outboxRepo = repos.Outbox
	} else {
		db, dbErr := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if dbErr != nil {
			return nil, dbErr
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return nil, dbErr
		}
		if migErr := postgres.RunMigrations(ctx, db); migErr != nil {
			_ = sqlDB.Close()
			return nil, migErr
		}
		closers = append(closers, sqlDB)

		redisClient, redisErr := cache.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			_ = sqlDB.Close()
			return nil, redisErr
		}
		closers = append(closers, redisClient)
		cacheStore = cache.NewRedisCache(redisClient)

		repos := postgres.NewRepositories(db)
		campaigns = repos.Campaigns
		relationships = repos.Relationships
		outboxRepo = repos.Outbox
	}

	matchingClient := matching.NewClient(cfg.MatchingServiceURL, cfg.SearchTimeout)

	var verifier ports.TokenVerifier
	if cfg.DevMode && cfg.JWTPublicKeyPEM == "" {
		ephemeral, _, verErr := security.NewEphemeralJWTVerifier()
		if verErr != nil {
			cleanup(closers)
			return nil, verErr
		}
		logger.WarnContext(ctx, "using ephemeral jwt keypair, tokens from other services will be rejected")
		verifier = ephemeral
	} else {
		configured, verErr := security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
		if verErr != nil {
			cleanup(closers)
			return nil, verErr
		}
		verifier = configured
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:        cfg.ServiceID,
			SearchDebounce:     cfg.SearchDebounce,
			SearchTimeout:      cfg.SearchTimeout,
			CountsCacheTTL:     cfg.CountsCacheTTL,
			SessionIdleTimeout: cfg.SessionIdleTimeout,
		},
		Campaigns:     campaigns,
		Relationships: relationships,
		Outbox:        outboxRepo,
		Matching:      matchingClient,
		Cache:         cacheStore,
	})

	handler := httpadapter.NewHandler(service, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		cleanup(closers)
		return nil, err
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			domain.EventRelationshipCreated:      domain.EventRelationshipCreated,
			domain.EventRelationshipTransitioned: domain.EventRelationshipTransitioned,
			domain.EventCampaignStatusChanged:    domain.EventCampaignStatusChanged,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{domain.EventInfluencerDeactivated},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, outboxRepo, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		consumer:   consumer,
		cleanupFn: func(ctx context.Context) {
			cleanup(closers)
		},
	}, nil
}

func cleanup(closers []io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	go r.runSessionJanitor(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}

func (r *Runtime) runSessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if closed := r.service.Sessions().CloseIdle(now.UTC(), r.cfg.SessionIdleTimeout); closed > 0 {
				r.logger.InfoContext(ctx, "closed idle search sessions",
					"module", "bootstrap.janitor",
					"operation", "close_idle",
					"outcome", "success",
					"count", closed,
				)
			}
		}
	}
}
