package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/TruongDucHungSon/ecommerce-api/internal/cache"
	"github.com/TruongDucHungSon/ecommerce-api/internal/client"
	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/gateway"
	"github.com/TruongDucHungSon/ecommerce-api/internal/repository"
	"github.com/TruongDucHungSon/ecommerce-api/internal/server"
	"github.com/TruongDucHungSon/ecommerce-api/internal/service"
)

const statsCacheTTL = 5 * time.Minute

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	log.SetLevel(logLevel(cfg.Log.Level))

	db := client.InitMysqlClient(cfg.DatabaseURL)
	rdb := client.InitRedisClient(cfg.Redis)
	payosClient := client.NewPayOSClient(cfg.PayOS)

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	statsCache := cache.NewStatsCache(rdb, statsCacheTTL)
	vnpay := gateway.NewVNPayAdapter(cfg.VNPay)
	payos := gateway.NewPayOSAdapter(cfg.PayOS)

	userService := service.NewUserService(userRepo, cfg.Auth.AccessTokenSecret)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, statsCache)
	paymentService := service.NewPaymentService(
		orderRepo, vnpay, payos, payosClient,
		cfg.BaseURL, cfg.Settlement, statsCache,
	)

	srv := server.NewServer(cfg, userService, productService, orderService, paymentService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Infof("starting HTTP server on %s", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}

func logLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
