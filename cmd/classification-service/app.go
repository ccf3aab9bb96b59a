package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"riskgrade/internal/broker"
	"riskgrade/internal/classification"
	"riskgrade/internal/config"
	"riskgrade/internal/constants"
	"riskgrade/internal/history"
	"riskgrade/internal/logger"
	"riskgrade/internal/snapshot"
	"riskgrade/pkg/bootstrap"
	"riskgrade/pkg/health"
	"riskgrade/pkg/logging"
	"riskgrade/pkg/metrics"
	"riskgrade/pkg/migrations"
	"riskgrade/pkg/models"
	"riskgrade/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	service        *classification.Service
	snapshots      snapshot.Store
	history        history.Repository
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("classification-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initService(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	if err := a.initSinks(ctx); err != nil {
		return fmt.Errorf("failed to initialize sinks: %w", err)
	}

	if err := a.InitBroker("classification-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "classification-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterClassificationMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

// initService wires the rule repository chosen by configuration: a JSON
// thresholds file or the threshold_rules table.
func (a *App) initService(ctx context.Context) error {
	var repo classification.Repository

	switch a.Config.Classification.RuleSource {
	case constants.RuleSourcePostgres:
		db, err := a.dbConnector.InitPostgreSQL(ctx)
		if err != nil {
			return err
		}
		a.db = db
		repo = classification.NewPostgresRepository(db)
	default:
		repo = classification.NewFileRepository(a.Config.Classification.ThresholdsFile)
	}

	if a.Config.CircuitBreaker.Enabled {
		repo = classification.NewCircuitBreakerRepository(repo, a.Config.CircuitBreaker)
	}

	svc := classification.NewService(repo, a.Config.Classification, a.Logger)

	if err := svc.ReloadRules(ctx, true); err != nil {
		initCtx := logging.WithServiceName(ctx, "classification-service")
		a.Logger.WarnwCtx(initCtx, "Failed to load initial rules",
			"error", err,
		)
	}

	a.service = svc
	return nil
}

func (a *App) initSinks(ctx context.Context) error {
	if a.Config.Sinks.Snapshot.Enabled {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		if redisClient != nil {
			a.redisClient = redisClient
			a.snapshots = snapshot.NewRedisStore(redisClient, a.Config.Sinks.Snapshot.TTLSeconds)
		}
	}

	if a.Config.Sinks.History.Enabled && a.Config.Database.MongoDB.URI != "" {
		mongoClient, err := a.dbConnector.InitMongoDB(ctx)
		if err != nil {
			return err
		}
		a.mongoClient = mongoClient

		dbName := a.Config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		mongoDB := mongoClient.Database(dbName)

		collection := a.Config.Sinks.History.Collection
		if collection == "" {
			collection = constants.DefaultHistoryCollection
		}
		if err := migrations.EnsureHistoryIndexes(ctx, mongoDB, collection); err != nil {
			a.Logger.WarnwCtx(ctx, "Failed to ensure history indexes", "error", err)
		}
		a.history = history.NewRepository(mongoDB, collection)
	}

	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}

	var maxAge time.Duration
	if a.Config.Classification.Reload.IntervalSeconds > 0 {
		maxAge = 3 * time.Duration(a.Config.Classification.Reload.IntervalSeconds) * time.Second
	}
	healthRegistry.Register(health.NewRuleSetChecker(a.service, maxAge))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	configConsumer, err := broker.NewConsumer(a.Config.Broker, a.Logger)
	if err != nil {
		configCtx := logging.WithServiceName(ctx, "classification-service")
		a.Logger.WarnwCtx(configCtx, "Failed to create config event consumer, event-driven reload disabled",
			"error", err,
		)
	} else {
		configConsumer.SetServiceName("classification-service")
		defer configConsumer.Close()
		configEventHandler := classification.NewHandler(a.service, a.Logger)

		g.Go(func() error {
			configCtx := logging.WithServiceName(gCtx, "classification-service")
			a.Logger.InfowCtx(configCtx, "Starting config update event consumer",
				"topic", a.Config.Broker.Kafka.ConfigUpdateTopic,
			)
			return configConsumer.Consume(gCtx, a.Config.Broker.Kafka.ConfigUpdateTopic, func(cCtx context.Context, record models.RecordEnvelope) error {
				return configEventHandler.HandleConfigUpdateEvent(cCtx, record)
			})
		})
	}

	g.Go(func() error {
		return a.service.StartReloader(gCtx)
	})

	inputTopic := a.Config.Broker.Kafka.InputTopic
	if inputTopic == "" {
		inputTopic = constants.DefaultInputTopic
	}
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage)
	})

	return g.Wait()
}

func (a *App) handleMessage(ctx context.Context, record models.RecordEnvelope) error {
	if err := a.service.Annotate(ctx, &record); err != nil {
		a.Logger.ErrorwCtx(ctx, "Classification error",
			"error", err,
		)
		return err
	}

	outputTopic := a.Config.Broker.Kafka.OutputTopic
	if outputTopic == "" {
		outputTopic = constants.DefaultOutputTopic
	}

	if err := a.Producer.Publish(ctx, outputTopic, record); err != nil {
		a.Logger.ErrorwCtx(ctx, "Failed to publish record",
			"error", err,
			"output_topic", outputTopic,
		)
		return err
	}

	// Sink writes are best effort; a snapshot or history miss must not
	// fail the pipeline.
	if a.snapshots != nil {
		if err := a.snapshots.SaveLatest(ctx, record); err != nil {
			a.Logger.WarnwCtx(ctx, "Failed to save snapshot",
				"error", err,
				"environment", record.Environment,
			)
		}
	}
	if a.history != nil {
		if err := a.history.Save(ctx, record); err != nil {
			a.Logger.WarnwCtx(ctx, "Failed to save history entry",
				"error", err,
			)
		}
	}

	levels := 0
	if record.Metadata.Classification != nil {
		levels = len(record.Metadata.Classification.Levels)
	}
	a.Logger.InfowCtx(ctx, "Record classified",
		"fields_classified", levels,
	)

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "classification-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down classification service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
