package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/ebdashboard/internal/app/controllers"
	appMigrations "github.com/yigit/ebdashboard/internal/app/migrations"
	appRepos "github.com/yigit/ebdashboard/internal/app/repositories"
	appRoutes "github.com/yigit/ebdashboard/internal/app/routes"
	appServices "github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/config"
	"github.com/yigit/ebdashboard/internal/db"
	appMiddleware "github.com/yigit/ebdashboard/internal/middleware"
	pkgAuth "github.com/yigit/ebdashboard/internal/pkg/auth"
	"github.com/yigit/ebdashboard/internal/pkg/email"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
	"github.com/yigit/ebdashboard/internal/pkg/logger"
	"github.com/yigit/ebdashboard/internal/pkg/metrics"
	"github.com/yigit/ebdashboard/internal/pkg/validation"
	"github.com/yigit/ebdashboard/internal/scheduler"
	"github.com/yigit/ebdashboard/internal/seed"
)

// DefaultConfigPath is where the service and the CLI look for configuration
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos     *appRepos.Repositories
	TxManager appRepos.TxManager

	AuthService           appServices.AuthService
	PurchaseService       appServices.PurchaseService
	StudentService        appServices.StudentService
	CourseService         appServices.CourseService
	TransactionService    appServices.TransactionService
	DashboardService      appServices.DashboardService
	ReconciliationService appServices.ReconciliationService
	FarmService           appServices.FarmService
	CreditService         appServices.CreditService
	AdminService          appServices.AdminService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	EmailService   email.EmailService
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the pool and checks it is reachable
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// Migrate applies the embedded schema migrations
func Migrate(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool, lgr).Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Strs("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// Seed creates the default admin account and course catalogue
func Seed(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	return seed.CreateDefaultData(ctx, appRepos.NewRepositories(database.Pool), seed.Options{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
	}, lgr)
}

// SetupDatabase connects, runs migrations and seeds default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := Migrate(ctx, database, lgr); err != nil {
		database.Close()
		return nil, err
	}

	if err := Seed(ctx, cfg, database, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildDependencies initializes services, controllers and middleware over the given repositories.
// Tests pass the in-memory store for both repos and tx.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, tx appRepos.TxManager, lgr zerolog.Logger) (*Dependencies, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	deps := &Dependencies{
		Repos:     repos,
		TxManager: tx,
		Logger:    lgr,
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		FromName:  cfg.Mail.FromName,
		FromEmail: cfg.Mail.FromEmail,
		UseTLS:    cfg.Mail.UseTLS,
	}, logger.Component("email"))
	if !mailer.Configured() {
		lgr.Warn().Msg("SMTP credentials not configured, purchase emails will only be logged")
	}
	deps.EmailService = mailer

	deps.AuthService = appServices.NewAuthService(repos, tx, deps.JWTService, cfg.DefaultPurchaseLimit(), lgr, nil)
	deps.PurchaseService = appServices.NewPurchaseService(repos, tx, deps.EmailService, cfg.StatsWindow(), nil)
	deps.StudentService = appServices.NewStudentService(repos, nil)
	deps.CourseService = appServices.NewCourseService(repos)
	deps.TransactionService = appServices.NewTransactionService(repos, nil)
	deps.DashboardService = appServices.NewDashboardService(repos, nil)
	deps.ReconciliationService = appServices.NewReconciliationService(repos, tx, logger.Component("reconcile"), nil)
	deps.FarmService = appServices.NewFarmService(repos, nil)
	deps.CreditService = appServices.NewCreditService(repos, nil)
	deps.AdminService = appServices.NewAdminService(repos, nil)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, lgr),
		Purchase:    appControllers.NewPurchaseController(deps.PurchaseService),
		Student:     appControllers.NewStudentController(deps.StudentService),
		Course:      appControllers.NewCourseController(deps.CourseService),
		Transaction: appControllers.NewTransactionController(deps.TransactionService),
		Dashboard:   appControllers.NewDashboardController(deps.DashboardService),
		Farm:        appControllers.NewFarmController(deps.FarmService),
		Credit:      appControllers.NewCreditController(deps.CreditService),
		Admin:       appControllers.NewAdminController(deps.AdminService),
	}

	return deps, nil
}

// BuildPostgresDependencies wires the PostgreSQL repositories into BuildDependencies
func BuildPostgresDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	return BuildDependencies(cfg, appRepos.NewRepositories(database.Pool), appRepos.NewTxManager(database), lgr)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterWithGin(); err != nil {
		lgr.Error().Err(err).Msg("Failed to register custom validation rules")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(),
		metrics.GinMiddleware(),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

// SetupScheduler registers the reconciliation job when enabled. A nil scheduler means nothing to run.
func SetupScheduler(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Reconcile.Enabled {
		lgr.Info().Msg("Scheduled reconciliation disabled")
		return nil, nil
	}

	s := scheduler.New(logger.Component("scheduler"))
	if err := s.Add("reconcile", cfg.Reconcile.Schedule, deps.ReconciliationService); err != nil {
		return nil, err
	}
	return s, nil
}
