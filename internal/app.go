// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "ledger-core/internal/api"
	"ledger-core/internal/api/handler"
	"ledger-core/internal/config"
	"ledger-core/internal/domain"
	"ledger-core/internal/events"
	"ledger-core/internal/events/kafka"
	"ledger-core/internal/repository"
	"ledger-core/internal/repository/memory"
	"ledger-core/internal/repository/postgres"
	"ledger-core/internal/service"
	"ledger-core/internal/util"
	"ledger-core/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // nil with the memory driver

	// Repositories
	Store          repository.Store
	UserRepository repository.UserRepository
	Publisher      events.Publisher

	// Services
	LedgerService service.LedgerService
	UserService   service.UserService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "db_driver", cfg.DB.Driver)

	// 3. Storage
	if err := app.initStore(); err != nil {
		return err
	}

	// 4. Event publishing
	if len(cfg.Kafka.Brokers) > 0 {
		app.Publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		app.Logger.Info("Kafka event publisher initialized.", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		app.Publisher = events.NopPublisher{}
		app.Logger.Info("No Kafka brokers configured, ledger events are not published.")
	}

	// 5. Initialize Services
	limits := service.Limits{
		MaxDeposit:  domain.Money(cfg.Ledger.MaxDepositMinorUnits),
		MaxTransfer: domain.Money(cfg.Ledger.MaxTransferMinorUnits),
	}
	app.LedgerService = service.NewLedgerService(app.Store, app.UserRepository, app.Publisher, limits, app.Logger)
	app.UserService = service.NewUserService(app.UserRepository, app.Store, app.Logger)
	app.Logger.Info("Services initialized.", "max_deposit", int64(limits.MaxDeposit), "max_transfer", int64(limits.MaxTransfer))

	// 6. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.UserService, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initStore() error {
	cfg := app.Config.DB
	if cfg.Driver == config.DriverMemory {
		store := memory.NewStore()
		app.Store = store
		app.UserRepository = store
		app.Logger.Warn("Using the in-memory store, balances are lost on restart.")
		return nil
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.", "driver", cfg.Driver)

	if cfg.AutoMigrate {
		if err := db.RunMigrations(database, cfg.DBName, app.Logger); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.Store = postgres.NewStore(database, cfg.LockTimeout)
	app.UserRepository = postgres.NewUserRepository(database)
	app.Logger.Info("Repositories initialized.")
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
