package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/internal/infrastructure/config"
	"movement-hold-service/internal/infrastructure/oauth"
	"movement-hold-service/internal/infrastructure/persistence"
	"movement-hold-service/internal/infrastructure/router"
	"movement-hold-service/internal/interface/api"
	"movement-hold-service/internal/interface/queue"
	mongoRepo "movement-hold-service/internal/interface/repository"
	"movement-hold-service/internal/interface/repository/memory"
	"movement-hold-service/internal/usecase"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
)

// stores groups the repositories behind the configured store driver
type stores struct {
	movements   repository.MovementRepository
	etas        repository.MovementEtaRepository
	matches     repository.MovementMatchRepository
	transits    repository.TransitRecordRepository
	customs     repository.CustomsDeclarationRepository
	audit       repository.AuditRepository
	mongoClient *mongo.Client
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Movement Hold Service", "version", cfg.AppVersion, "storeDriver", cfg.StoreDriver)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("movement_hold", registry)

	// Set up stores
	st, err := newStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up store", "driver", cfg.StoreDriver, "error", err)
	}

	// Set up SQS
	sqsClient, err := persistence.NewSQSClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		log.Fatal("Failed to create SQS client", "error", err)
	}
	notificationRepo := mongoRepo.NewSQSNotificationRepository(sqsClient, log)

	// Set up hold action client
	credentials := oauth.NewClientCredentials(
		cfg.HoldActionClientID,
		cfg.HoldActionClientSecret,
		cfg.HoldActionTokenURL,
		nil,
		log,
	)
	holdActionRepo := mongoRepo.NewHoldActionRepository(mongoRepo.HoldActionConfig{
		BaseURL:        cfg.HoldActionURL,
		Timeout:        cfg.HoldActionTimeout,
		RatePerSecond:  cfg.HoldActionRatePerSecond,
		IgnoreNotFound: cfg.HoldActionIgnoreNotFound,
	}, credentials.HTTPClient(ctx), log)

	// Use cases
	auditService := usecase.NewAuditService(st.audit, log)
	lookup := usecase.NewReferenceLookup(st.transits, st.customs)
	publisher := usecase.NewNotificationPublisher(notificationRepo, cfg.EtaNotificationQueue, cfg.MatchNotificationQueue, m, log)
	reconciler := usecase.NewHoldReconciler(st.movements, st.matches, st.transits, lookup, holdActionRepo, auditService, cfg.HoldActionEnabled, m, log)
	etaNotifier := usecase.NewEtaNotifier(st.etas, lookup, publisher, log)

	resourceRouter := router.NewResourceRouter(log)
	resourceRouter.Register(usecase.NewMovementProcessor(st.movements, st.matches, lookup, reconciler, etaNotifier, publisher, log))
	resourceRouter.Register(usecase.NewPreNotificationProcessor(st.transits, st.matches, lookup, reconciler, log))
	resourceRouter.Register(usecase.NewCustomsDeclarationProcessor(st.customs, st.matches, reconciler, log))

	dispatcher := usecase.NewMessageDispatcher(resourceRouter, auditService, cfg.AuditInboundEnabled, log)

	// Start one consumer per queue
	consumer := queue.NewConsumer(sqsClient, cfg.QueueWaitSeconds, m, log)
	var wg sync.WaitGroup
	for _, name := range []string{cfg.MovementQueue, cfg.PreNotificationQueue, cfg.CustomsDeclarationQueue} {
		if name == "" {
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := consumer.Run(ctx, name, dispatcher); err != nil {
				log.Error("Queue consumer exited", "queue", name, "error", err)
			}
		}(name)
	}

	// Set up HTTP server
	apiServer := api.NewServer(dispatcher, auditService, registry, cfg.AppVersion, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apiServer.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Stop consumers between batches
	wg.Wait()

	if st.mongoClient != nil {
		if err := st.mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}

	log.Info("Movement Hold Service stopped")
}

func newStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory store, state is lost on restart")
		mem := memory.NewStore()
		return &stores{
			movements: mem.Movements,
			etas:      mem.MovementEtas,
			matches:   mem.MovementMatches,
			transits:  mem.TransitRecords,
			customs:   mem.CustomsDeclarations,
			audit:     mem.Audit,
		}, nil
	}

	log.Info("Connecting to MongoDB")
	client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		return nil, err
	}
	db := persistence.GetDatabase(client, cfg.MongoDB)

	movements := mongoRepo.NewMongoMovementRepository(db)
	etas := mongoRepo.NewMongoMovementEtaRepository(db)
	matches := mongoRepo.NewMongoMovementMatchRepository(db)
	transits := mongoRepo.NewMongoTransitRecordRepository(db)
	customs := mongoRepo.NewMongoCustomsDeclarationRepository(db)
	audit := mongoRepo.NewMongoAuditRepository(db)

	if err := persistence.EnsureIndexes(ctx, movements, matches, transits, customs, audit); err != nil {
		return nil, err
	}

	return &stores{
		movements:   movements,
		etas:        etas,
		matches:     matches,
		transits:    transits,
		customs:     customs,
		audit:       audit,
		mongoClient: client,
	}, nil
}
