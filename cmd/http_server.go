package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/auth"
	authpostgres "github.com/schoolpay/payments/internal/auth/postgres"
	"github.com/schoolpay/payments/internal/core/events"
	"github.com/schoolpay/payments/internal/gateway"
	"github.com/schoolpay/payments/internal/notification"
	"github.com/schoolpay/payments/internal/order"
	orderpostgres "github.com/schoolpay/payments/internal/order/postgres"
	"github.com/schoolpay/payments/internal/reconcile"
	reconcilepostgres "github.com/schoolpay/payments/internal/reconcile/postgres"
	"github.com/schoolpay/payments/internal/school"
	schoolpostgres "github.com/schoolpay/payments/internal/school/postgres"
	"github.com/schoolpay/payments/internal/transaction"
	transactionpostgres "github.com/schoolpay/payments/internal/transaction/postgres"
	"github.com/schoolpay/payments/internal/transport/rest"
	"github.com/schoolpay/payments/internal/transport/swagger"
	"github.com/schoolpay/payments/internal/user"
	userpostgres "github.com/schoolpay/payments/internal/user/postgres"
	"github.com/schoolpay/payments/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	lg := logger.L()

	if err := swagger.ValidateSpec("./api/openapi.yml"); err != nil {
		lg.Error("openapi spec validation failed", "error", err)
		os.Exit(1)
	}

	eventBus := registerRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("starting http server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
		if err := eventBus.Drain(ctx); err != nil {
			lg.Warn("event bus drain timed out", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			lg.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			lg.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	lg.Info("server stopped")
}

func registerRoutes(deps *Dependencies) *events.EventBus {
	lg := logger.L()
	cfg := deps.Config

	eventBus := events.NewEventBus(lg)
	notification.NewEventHandler(lg).RegisterEventHandlers(eventBus)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpostgres.NewRepository(deps.GormDB), tokenGen, cfg.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	userService := user.NewService(userpostgres.NewUserRepository(deps.DB))
	userHandler := user.NewHandler(userService, lg)

	schoolRepo := schoolpostgres.NewSchoolRepository(deps.GormDB)
	schoolService := school.NewService(schoolRepo, lg)
	schoolHandler := school.NewHandler(schoolService, lg)

	collectClient := gateway.NewClient(cfg.Gateway, lg)

	orderRepo := orderpostgres.NewOrderRepository(deps.GormDB)
	orderService := order.NewService(orderRepo, schoolService, collectClient, eventBus, lg)
	orderHandler := order.NewHandler(orderService)

	engine := reconcile.NewEngine(
		orderRepo,
		reconcilepostgres.NewStatusRepository(deps.GormDB),
		reconcilepostgres.NewWebhookLogRepository(deps.GormDB),
		eventBus,
		lg,
	)
	statusHandler := reconcile.NewHandler(engine)
	webhookHandler := reconcile.NewWebhookHandler(engine)

	transactionService := transaction.NewService(transactionpostgres.NewTransactionRepository(deps.GormDB), lg)
	transactionHandler := transaction.NewHandler(transactionService, lg)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, rest.Handlers{
		Auth:        authHandler,
		User:        userHandler,
		Order:       orderHandler,
		Status:      statusHandler,
		Webhook:     webhookHandler,
		Transaction: transactionHandler,
		School:      schoolHandler,
	}, cfg.Server.AllowedOrigins, lg)

	return eventBus
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB opens the pgx stdlib connection shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
