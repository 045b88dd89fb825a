package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pay-chain.backend/internal/config"
	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/infrastructure/blockchain"
	"pay-chain.backend/internal/infrastructure/jobs"
	"pay-chain.backend/internal/infrastructure/repositories"
	"pay-chain.backend/internal/interfaces/http/handlers"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/internal/usecases"
	"pay-chain.backend/pkg/jwt"
	"pay-chain.backend/pkg/logger"
	"pay-chain.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newSessionStore = redis.NewSessionStore
	runServer       = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	executionRepo := repositories.NewExecutionRepository(db)
	quoteRepo := repositories.NewQuoteRepository(db)
	dailySpendingRepo := repositories.NewDailySpendingRepository(db)
	breakerRepo := repositories.NewCircuitBreakerRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	approvalRepo := repositories.NewTokenApprovalRepository(db)
	walletVerifRepo := repositories.NewWalletVerificationRepository(db)
	noticeRepo := repositories.NewPaymentNoticeRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize Session Store
	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Initialize blockchain client factory and register any chain whose
	// treasury key is configured; an unconfigured chain is simply absent
	// from ExecutionRouter and Dispatch reports it as unsupported.
	clientFactory := blockchain.NewClientFactory()

	// Initialize usecases
	authUsecase := usecases.NewAuthUsecase(userRepo, jwtService)

	quoteEngineCfg := usecases.DefaultQuoteEngineConfig()
	quoteEngineCfg.QuoteTTL = cfg.Execution.QuoteTTL
	quoteEngineCfg.MaxComputeUnits = cfg.Execution.MaxComputeUnits
	quoteEngine := usecases.NewQuoteEngine(quoteRepo, auditRepo, uow, quoteEngineCfg)

	riskController := usecases.NewRiskController(dailySpendingRepo, breakerRepo, auditRepo, cfg.Risk.DailyLimits, cfg.Risk.HourlyOutflowThreshold)

	executionRouter := usecases.NewExecutionRouter(executionRepo, quoteEngine, riskController, auditRepo, uow)
	registerChainExecutors(executionRouter, clientFactory, cfg)

	approvalUsecase := usecases.NewTokenApprovalUsecase(approvalRepo, walletVerifRepo, quoteRepo, auditRepo, uow, cfg.Execution.ApprovalTTL, cfg.Execution.PriceTolerance)
	settlementUsecase := usecases.NewSettlementUsecase(noticeRepo, quoteRepo, settlementRepo, quoteEngine, executionRouter, auditRepo, uow)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authUsecase, sessionStore)
	quoteHandler := handlers.NewQuoteHandler(quoteEngine, quoteRepo, executionRepo)
	approvalHandler := handlers.NewApprovalHandler(approvalUsecase)
	webhookHandler := handlers.NewWebhookHandler(settlementUsecase)
	healthHandler := handlers.NewHealthHandler(executionRouter, breakerRepo)

	authMiddleware := middleware.AuthMiddleware(jwtService, sessionStore)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiryJob := jobs.NewQuoteExpiryJob(quoteEngine, cfg.Execution.QuoteTTL)
	go expiryJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		authHandler:     authHandler,
		quoteHandler:    quoteHandler,
		approvalHandler: approvalHandler,
		webhookHandler:  webhookHandler,
		healthHandler:   healthHandler,
		authMiddleware:  authMiddleware,
	})

	// Print all registered routes for debugging
	log.Println("📋 Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		expiryJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 Pay-Chain Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// registerChainExecutors wires one ChainSubmitter per chain with a treasury
// key configured. A chain left unconfigured is simply absent from the
// router rather than wired with a broken executor.
func registerChainExecutors(router *usecases.ExecutionRouter, clientFactory *blockchain.ClientFactory, cfg *config.Config) {
	if cfg.Treasury.EthereumPrivateKey != "" {
		if executor, err := newEVMSubmitter(clientFactory, entities.ChainEthereum, cfg.Blockchain.EthereumRPC, cfg.Treasury.EthereumPrivateKey); err != nil {
			log.Printf("⚠️ Ethereum executor not registered: %v", err)
		} else {
			router.Register(executor)
		}
	}
	if cfg.Treasury.BasePrivateKey != "" {
		if executor, err := newEVMSubmitter(clientFactory, entities.ChainBase, cfg.Blockchain.BaseRPC, cfg.Treasury.BasePrivateKey); err != nil {
			log.Printf("⚠️ Base executor not registered: %v", err)
		} else {
			router.Register(executor)
		}
	}
	if cfg.Treasury.SolanaSecretKey != "" {
		solanaClient := clientFactory.GetSolanaClient(cfg.Blockchain.SolanaRPC)
		executor, err := blockchain.NewSVMExecutor(entities.ChainSolana, solanaClient, cfg.Treasury.SolanaSecretKey)
		if err != nil {
			log.Printf("⚠️ Solana executor not registered: %v", err)
		} else {
			router.Register(executor)
		}
	}
}

func newEVMSubmitter(clientFactory *blockchain.ClientFactory, chain entities.Chain, rpcURL, privateKeyHex string) (*blockchain.EVMExecutor, error) {
	client, err := clientFactory.GetEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}
	// No ERC-20 treasury asset is configured; the treasury settles in the
	// chain's native asset.
	return blockchain.NewEVMExecutor(chain, client, privateKeyHex, "")
}
