package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/application/dispatcher"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/port"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/service"
	"github.com/vlaamswoordenboek/woordenboek/internal/application/workflow"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/export"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/identity"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/messaging"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/metrics"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/repository"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/persistence/sqlite"
	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/worker"
	httpapi "github.com/vlaamswoordenboek/woordenboek/internal/interfaces/http"
	"github.com/vlaamswoordenboek/woordenboek/pkg/database"
)

// Handler names registered on the dispatcher
const (
	publisherHandlerName = "nats-publisher"
	counterHandlerName   = "queue-counter"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	raw, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := RunMigrations(ctx, raw, cfg.MigrationsDir, logger); err != nil {
		raw.Close()
		return nil, err
	}

	return &DatabaseBundle{
		Raw:            raw,
		TransactionMgr: sqlite.NewDB(raw.DB, logger),
	}, nil
}

// RunMigrations applies pending migrations from dir, or the embedded set when dir is empty.
func RunMigrations(ctx context.Context, db *database.DB, dir string, logger *zap.Logger) (int, error) {
	migrator, err := database.NewMigrator(db, dir, logger)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}
	applied, err := migrator.Run(ctx)
	if err != nil {
		return applied, fmt.Errorf("failed to run migrations: %w", err)
	}
	return applied, nil
}

// ProvideRepositories creates all repositories on the transaction-aware DB.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Article: repository.NewArticleRepository(db, logger),
		History: repository.NewHistoryRepository(db, logger),
	}, nil
}

// ProvideDispatcher creates the in-process event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ProvideMetrics creates the prometheus recorder.
func ProvideMetrics() (*metrics.Recorder, error) {
	recorder, err := metrics.NewRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return recorder, nil
}

// LifecycleDeps holds dependencies for the lifecycle engine.
type LifecycleDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Recorder   workflow.Recorder
	Logger     *zap.Logger
}

// ProvideLifecycleEngine creates the article lifecycle engine.
func ProvideLifecycleEngine(deps *LifecycleDeps) (workflow.LifecycleEngine, error) {
	if deps == nil || deps.Repos == nil || deps.TxManager == nil {
		return nil, fmt.Errorf("repositories and transaction manager are required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger.Named("lifecycle")}),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}
	if deps.Recorder != nil {
		opts = append(opts, workflow.WithRecorder(deps.Recorder))
	}

	return workflow.NewEngine(deps.Repos.Article, deps.Repos.History, deps.TxManager, opts...), nil
}

// ProvideServices creates all application services.
func ProvideServices(repos *RepositoryBundle, txManager port.TransactionManager, disp dispatcher.Dispatcher, logger *zap.Logger) (*ServiceBundle, error) {
	if repos == nil || txManager == nil {
		return nil, fmt.Errorf("repositories and transaction manager are required")
	}

	return &ServiceBundle{
		Articles: service.NewArticleService(
			repos.Article,
			repos.History,
			txManager,
			disp,
			&zapLoggerAdapter{logger: logger.Named("articles")},
		),
	}, nil
}

// ProvidePublisher connects to NATS and forwards every lifecycle event.
// Returns nil when no URL is configured.
func ProvidePublisher(cfg *NATSConfig, disp dispatcher.Dispatcher, logger *zap.Logger) (*messaging.Publisher, error) {
	if cfg == nil || cfg.URL == "" {
		logger.Info("NATS publishing disabled")
		return nil, nil
	}

	conn, err := messaging.Connect(cfg.URL, cfg.ClientName, logger)
	if err != nil {
		return nil, err
	}

	publisher := messaging.NewPublisher(conn, cfg.SubjectPrefix, logger)
	disp.SubscribeNamed(dispatcher.AllTypes, publisherHandlerName, publisher.Handle)
	return publisher, nil
}

// WorkerDeps holds dependencies for background workers.
type WorkerDeps struct {
	Services   *ServiceBundle
	Dispatcher dispatcher.Dispatcher
	Sink       worker.CountSink
	WorkerCfg  *WorkerConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the worker manager and registers the queue counter.
// Workers are not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, *worker.QueueCounter, error) {
	if deps == nil || deps.Services == nil || deps.WorkerCfg == nil {
		return nil, nil, fmt.Errorf("services and worker config are required")
	}

	var sinks []worker.CountSink
	if deps.Sink != nil {
		sinks = append(sinks, deps.Sink)
	}

	counter := worker.NewQueueCounter(
		worker.QueueCounterConfig{Interval: deps.WorkerCfg.CounterInterval},
		deps.Services.Articles,
		deps.Logger,
		sinks...,
	)

	if deps.Dispatcher != nil {
		deps.Dispatcher.SubscribeNamed(event.TypeStateChanged, counterHandlerName, counter.HandleEvent)
		deps.Dispatcher.SubscribeNamed(event.TypeArticleCreated, counterHandlerName, counter.HandleEvent)
	}

	manager := worker.NewWorkerManager(deps.Logger)
	manager.Register(counter)

	return manager, counter, nil
}

// ServerDeps holds dependencies for the HTTP server.
type ServerDeps struct {
	Services *ServiceBundle
	Engine   workflow.LifecycleEngine
	Counter  *worker.QueueCounter
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
}

// ProvideHTTPServer creates the admin API server.
func ProvideHTTPServer(cfg *ServerConfig, deps *ServerDeps) (*httpapi.Server, error) {
	if cfg == nil || deps == nil || deps.Services == nil || deps.Engine == nil {
		return nil, fmt.Errorf("server config, services and engine are required")
	}

	api := httpapi.Dependencies{
		Articles: deps.Services.Articles,
		Engine:   deps.Engine,
		Identity: identity.NewContextProvider(),
		Exporter: export.NewQueueExporter(deps.Logger.Named("export")),
	}
	if deps.Counter != nil {
		api.Counts = deps.Counter
	}
	if deps.Metrics != nil {
		api.Metrics = deps.Metrics.Handler()
	}

	return httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		UserHeader:   cfg.UserHeader,

		SuggestionLimit:  cfg.SuggestionLimit,
		SuggestionWindow: cfg.SuggestionWindow,
	}, api, &zapLoggerAdapter{logger: deps.Logger.Named("http")}), nil
}
