// Package main provides the API server entry point for the Molotov gallery service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luloxi/molotov/internal/api"
	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/config"
	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/feed"
	"github.com/luloxi/molotov/internal/ipfs"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/pricing"
	"github.com/luloxi/molotov/internal/service"
	"github.com/luloxi/molotov/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer func() {
		_ = clickhouse.Close() // nolint:errcheck // shutdown cleanup
	}()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer func() {
		_ = redis.Close() // nolint:errcheck // shutdown cleanup
	}()

	logger.Info("Database connections established")

	// Initialize chain access with RPC failover
	provider, err := chain.NewRPCProvider(cfg.Chain.RPCPrimary, cfg.Chain.RPCSecondary)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create RPC provider")
	}

	client, err := chain.NewClient(provider, cfg.Chain.RPCTimeout)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to chain RPC")
	}
	defer client.Close()

	binding, err := contract.NewBinding(cfg.Chain.ContractAddress, client)
	if err != nil {
		logger.WithError(err).Fatal("Invalid marketplace contract address")
	}

	logger.WithFields(map[string]interface{}{
		"rpc":      cfg.Chain.RPCPrimary,
		"contract": cfg.Chain.ContractAddress,
	}).Info("Chain access initialized")

	// Initialize repositories and cache
	statsRepo := storage.NewStatsRepository(postgres)
	categoryRepo := storage.NewCategoryRepository(postgres)
	viewLogRepo := storage.NewViewLogRepository(clickhouse)
	cacheService := storage.NewCacheService(redis, cfg.Cache.TTL)

	// Initialize the activity feed monitor and listing-time resolver
	feedCfg := feed.MonitorConfig{
		MaxEvents:       cfg.Feed.MaxEvents,
		DeploymentBlock: cfg.Chain.DeploymentBlock,
		LookbackBlocks:  cfg.Feed.LookbackBlocks,
		ChunkSize:       cfg.Feed.ChunkSize,
		AvgBlockTime:    cfg.Feed.AvgBlockTime,
	}
	monitor := feed.NewMonitor(client, binding, feedCfg)
	resolver := feed.NewResolver(client, binding, feedCfg)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := monitor.Start(startCtx); err != nil {
		// The monitor serves its last good state and keeps retrying, so a
		// failed initial backfill is not fatal.
		logger.WithError(err).Warn("Initial feed backfill failed")
	}
	cancelStart()
	defer monitor.Stop()

	// Initialize services
	logger.Info("Initializing services...")

	galleryService := service.NewGalleryService(binding, resolver, statsRepo, categoryRepo, cacheService)
	engagementService := service.NewEngagementService(statsRepo, viewLogRepo, categoryRepo, cacheService)
	oracle := pricing.NewOracle(cfg.Pricing.Endpoint, cacheService, cfg.Pricing.CacheTTL)
	pinner := ipfs.NewClient(&cfg.Pinning)

	logger.Info("Services initialized")

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerIP:   cfg.Server.RequestsPerIP,
	}

	server := api.NewServer(serverConfig, monitor, galleryService, engagementService, binding, pinner, oracle, client.Provider())

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
