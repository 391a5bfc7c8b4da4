package app

import (
	"testlab/cmd/migration/initialize"
	"testlab/config"
	"testlab/internal/access"
	"testlab/internal/auth"
	"testlab/internal/database"
	"testlab/internal/events"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	"testlab/internal/reports"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"testlab/internal/websockets"

	adminController "testlab/internal/controllers/admin"
	contactSubmissionController "testlab/internal/controllers/contactSubmissions"
	testRequestController "testlab/internal/controllers/testRequests"
	userController "testlab/internal/controllers/users"

	migrate "github.com/rubenv/sql-migrate"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Metrics    *metrics.Metrics
	Tokens     *auth.TokenService
	Guard      *access.Guard
	Config     config.Config

	// Services
	TransactionService       *services.TransactionService
	CacheInvalidationService *services.CacheInvalidationService

	// Repositories
	UserRepo              repositories.UserRepository
	TestRequestRepo       repositories.TestRequestRepository
	ContactSubmissionRepo repositories.ContactSubmissionRepository
	VersionRepo           repositories.CollectionVersionRepository

	// Controllers
	UserController              *userController.UserController
	AdminController             *adminController.AdminController
	TestRequestController       *testRequestController.TestRequestController
	ContactSubmissionController *contactSubmissionController.ContactSubmissionController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	return NewWithConfig(config)
}

func NewWithConfig(config config.Config) (*App, error) {
	log := logger.New("app").Function("NewWithConfig")

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	if config.DatabaseAutoMigrate {
		applied, err := db.Migrate(migrate.Up, 0)
		if err != nil {
			_ = db.Close()
			return &App{}, log.Err("failed to apply migrations", err)
		}
		log.Info("Migrations applied", "count", applied)
	}

	if err := initialize.InitializeTables(db, config, log); err != nil {
		_ = db.Close()
		return &App{}, log.Err("failed to initialize tables", err)
	}

	renderer, err := reports.NewRenderer(reports.CompanyFromConfig(config), nil)
	if err != nil {
		_ = db.Close()
		return &App{}, log.Err("failed to create report renderer", err)
	}

	eventBus := events.New(db.Cache.Events, config)
	appMetrics := metrics.New()
	clock := services.NewMonotonicClock()

	// Initialize services
	transactionService := services.NewTransactionService(db)
	cacheInvalidationService := services.NewCacheInvalidationService(eventBus)

	// Initialize repositories
	userRepo := repositories.NewUser(db)
	testRequestRepo := repositories.NewTestRequest(db)
	contactSubmissionRepo := repositories.NewContactSubmission(db)
	versionRepo := repositories.NewCollectionVersion(db)

	guard := access.New(userRepo)
	tokens := auth.NewTokenService(config)

	// Initialize controllers with repositories and services
	middleware := middleware.New(tokens, guard)
	userController := userController.New(userRepo, guard, transactionService, appMetrics)
	adminController := adminController.New(eventBus, userRepo, guard, config, appMetrics)
	testRequestController := testRequestController.New(
		testRequestRepo,
		versionRepo,
		guard,
		transactionService,
		cacheInvalidationService,
		clock,
		renderer,
		appMetrics,
	)
	contactSubmissionController := contactSubmissionController.New(
		contactSubmissionRepo,
		versionRepo,
		guard,
		transactionService,
		cacheInvalidationService,
		clock,
		appMetrics,
	)

	websocket := websockets.New(eventBus, guard, appMetrics)

	app := &App{
		Database:                    db,
		Config:                      config,
		Middleware:                  middleware,
		Websocket:                   websocket,
		EventBus:                    eventBus,
		Metrics:                     appMetrics,
		Tokens:                      tokens,
		Guard:                       guard,
		TransactionService:          transactionService,
		CacheInvalidationService:    cacheInvalidationService,
		UserRepo:                    userRepo,
		TestRequestRepo:             testRequestRepo,
		ContactSubmissionRepo:       contactSubmissionRepo,
		VersionRepo:                 versionRepo,
		UserController:              userController,
		AdminController:             adminController,
		TestRequestController:       testRequestController,
		ContactSubmissionController: contactSubmissionController,
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Metrics,
		a.Tokens,
		a.Guard,
		a.TransactionService,
		a.CacheInvalidationService,
		a.UserRepo,
		a.TestRequestRepo,
		a.ContactSubmissionRepo,
		a.VersionRepo,
		a.UserController,
		a.AdminController,
		a.TestRequestController,
		a.ContactSubmissionController,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
