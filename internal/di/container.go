// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"sync"

	"github.com/wilforlan/suncture-feedback-board/internal/board"
	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/database"
	"github.com/wilforlan/suncture-feedback-board/internal/leaderboard"
	"github.com/wilforlan/suncture-feedback-board/internal/lifecycle"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/serial"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	"github.com/wilforlan/suncture-feedback-board/internal/services"
	"github.com/wilforlan/suncture-feedback-board/internal/store"
	"github.com/wilforlan/suncture-feedback-board/internal/worker"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"gorm.io/gorm"
)

// Service names
const (
	ServiceStore       = "store"
	ServiceAllocator   = "allocator"
	ServiceEngine      = "engine"
	ServiceFeedback    = "feedback"
	ServiceBoard       = "board"
	ServiceLeaderboard = "leaderboard"
	ServiceRefresher   = "refresher"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetStore() (store.RecordStore, error)
	GetAllocator() (*serial.Allocator, error)
	GetEngine() (*lifecycle.Engine, error)
	GetFeedbackService() (serviceinterfaces.FeedbackServiceInterface, error)
	GetBoard() (*board.Board, error)
	GetLeaderboard() (*leaderboard.Aggregator, error)
	GetRefresher() (*worker.Refresher, error)
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

var _ ServiceContainerInterface = (*ServiceContainer)(nil)

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize opens the configured record store, wires the services on top of
// it and loads the board. A board that fails to load starts empty.
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	recordStore, err := sc.openStore(ctx)
	if err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize %s store", sc.cfg.Store.Driver)
	}

	if err := sc.initializeServices(recordStore); err != nil {
		_ = sc.cleanup(ctx)
		return err
	}

	feedbackBoard := sc.services[ServiceBoard].(*board.Board)
	if err := feedbackBoard.Load(ctx); err != nil {
		sc.logger.Warn(ctx, "board not loaded at startup", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func (sc *ServiceContainer) openStore(ctx context.Context) (store.RecordStore, error) {
	switch sc.cfg.Store.Driver {
	case config.StoreDriverSQLite:
		gdb, err := sc.dbManager.OpenSQLite(ctx, sc.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sc.gormStore(gdb)
	case config.StoreDriverMySQL:
		gdb, err := sc.dbManager.OpenMySQL(ctx, sc.cfg.Store.MySQLDSN, sc.cfg.Database)
		if err != nil {
			return nil, err
		}
		return sc.gormStore(gdb)
	default:
		db, err := sc.dbManager.InitDB(ctx, sc.cfg.Database)
		if err != nil {
			return nil, err
		}
		sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error { return db.Close() })
		return store.NewPostgresStore(db, sc.logger), nil
	}
}

// gormStore registers the pool for shutdown and migrates the feedback table.
func (sc *ServiceContainer) gormStore(gdb *gorm.DB) (store.RecordStore, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to access gorm pool")
	}
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error { return sqlDB.Close() })

	gormStore, err := store.NewGormStore(gdb, sc.logger)
	if err != nil {
		return nil, err
	}
	return gormStore, nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(recordStore store.RecordStore) error {
	loc, err := sc.cfg.Location()
	if err != nil {
		return err
	}

	allocator := serial.NewAllocator(recordStore, sc.cfg.Feedback.SerialPrefix, sc.logger)
	engine := lifecycle.NewEngine(recordStore, sc.logger)

	sc.services[ServiceStore] = recordStore
	sc.services[ServiceAllocator] = allocator
	sc.services[ServiceEngine] = engine
	feedbackService := services.NewFeedbackService(recordStore, allocator, engine, sc.logger)
	feedbackBoard := board.NewBoard(recordStore, engine, board.NewLogNotifier(sc.logger), sc.logger)
	feedbackService.Observe(feedbackBoard)
	sc.services[ServiceFeedback] = feedbackService
	sc.services[ServiceBoard] = feedbackBoard
	sc.services[ServiceLeaderboard] = leaderboard.NewAggregator(recordStore, sc.logger, loc)
	if interval := sc.cfg.Feedback.BoardRefreshInterval; interval > 0 {
		sc.services[ServiceRefresher] = worker.NewRefresher(feedbackBoard, interval, sc.logger)
	}
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetStore returns the record store
func (sc *ServiceContainer) GetStore() (store.RecordStore, error) {
	return GetServiceAs[store.RecordStore](sc, ServiceStore)
}

// GetAllocator returns the serial allocator
func (sc *ServiceContainer) GetAllocator() (*serial.Allocator, error) {
	return GetServiceAs[*serial.Allocator](sc, ServiceAllocator)
}

// GetEngine returns the status transition engine
func (sc *ServiceContainer) GetEngine() (*lifecycle.Engine, error) {
	return GetServiceAs[*lifecycle.Engine](sc, ServiceEngine)
}

// GetFeedbackService returns the feedback service
func (sc *ServiceContainer) GetFeedbackService() (serviceinterfaces.FeedbackServiceInterface, error) {
	return GetServiceAs[serviceinterfaces.FeedbackServiceInterface](sc, ServiceFeedback)
}

// GetBoard returns the board projection
func (sc *ServiceContainer) GetBoard() (*board.Board, error) {
	return GetServiceAs[*board.Board](sc, ServiceBoard)
}

// GetLeaderboard returns the leaderboard aggregator
func (sc *ServiceContainer) GetLeaderboard() (*leaderboard.Aggregator, error) {
	return GetServiceAs[*leaderboard.Aggregator](sc, ServiceLeaderboard)
}

// GetRefresher returns the board refresher; it is only registered when
// feedback.board_refresh_interval is set.
func (sc *ServiceContainer) GetRefresher() (*worker.Refresher, error) {
	return GetServiceAs[*worker.Refresher](sc, ServiceRefresher)
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup releases resources in reverse order of acquisition
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}
