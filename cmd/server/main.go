package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/rl1809/bikeshop/internal/adapter/handler"
	"github.com/rl1809/bikeshop/internal/adapter/messaging"
	"github.com/rl1809/bikeshop/internal/adapter/storage"
	"github.com/rl1809/bikeshop/internal/config"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/core/service"
	"github.com/rl1809/bikeshop/internal/platform/observability"
	"github.com/rl1809/bikeshop/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, config.ServiceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OtelEndpoint, config.ServiceName, config.ServiceVersion)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	// Initialize MySQL
	db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to create schema", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
	logger.Info("connected to redis")

	// Order events are optional
	var publisher port.EventPublisher
	var kafkaPublisher *messaging.KafkaPublisher
	if cfg.KafkaBroker != "" {
		kafkaPublisher = messaging.NewKafkaPublisher(messaging.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic))
		publisher = kafkaPublisher
		logger.Info("publishing order events", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}

	// Initialize services
	ids := ident.NewAllocator()
	catalog := service.NewCatalog(mysqlAdapter.Framesets(), mysqlAdapter.Handlebars(), mysqlAdapter.WheelPairs(), mysqlAdapter.Stock(), logger)
	assembly := service.NewAssemblyService(mysqlAdapter.Products(), ids)
	orderService := service.NewOrderService(mysqlAdapter, ids, publisher, logger)
	storefront := service.NewStorefront(catalog, assembly, orderService, redisAdapter, logger)
	customers := service.NewCustomerService(mysqlAdapter.Customers(), ids, logger)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterOrderService(grpcServer, handler.NewGRPCHandler(storefront, orderService, logger))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(catalog, storefront, orderService, customers, logger).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("failed to flush order events", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", zap.Error(err))
	}

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
