package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/withushr/approval-engine/internal/application/directory"
	"github.com/withushr/approval-engine/internal/application/service"
	"github.com/withushr/approval-engine/internal/application/workflow"
	"github.com/withushr/approval-engine/internal/config"
	"github.com/withushr/approval-engine/internal/domain/policy"
	httpserver "github.com/withushr/approval-engine/internal/interfaces/http"
	"github.com/withushr/approval-engine/internal/infrastructure/persistence/repository"
	"github.com/withushr/approval-engine/internal/infrastructure/persistence/sqlite"
	"github.com/withushr/approval-engine/pkg/database"
	"github.com/withushr/approval-engine/pkg/utils"
)

func main() {
	// Load .env file when present
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize transaction manager and repositories
	txManager := sqlite.NewDB(db.DB, logger)
	docRepo := repository.NewDocumentRepository(db.DB, logger)
	lineRepo := repository.NewApprovalLineRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	balanceRepo := repository.NewLeaveBalanceRepository(db.DB, logger)

	// Initialize approver directory and document type policies
	approverDirectory := directory.NewAdapter(userRepo, logger)
	policies := policy.NewRegistry(
		policy.NewLeaveApplicationPolicy(balanceRepo),
		policy.NewEmploymentContractPolicy(),
	)

	// Initialize workflow engine and services
	engine := workflow.NewEngine(
		docRepo,
		lineRepo,
		userRepo,
		approverDirectory,
		policies,
		txManager,
		logger,
	)

	sugar := &sugaredLogger{logger.Sugar()}
	lineService := service.NewApprovalLineService(lineRepo, sugar)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, lineService, sugar)

	// Run until interrupted
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// sugaredLogger adapts zap's sugared logger to the keysAndValues interfaces
type sugaredLogger struct {
	sugar *zap.SugaredLogger
}

func (l *sugaredLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *sugaredLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
