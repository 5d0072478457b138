package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/handler"
	"github.com/TruongDucHungSon/ecommerce-api/internal/middleware"
	"github.com/TruongDucHungSon/ecommerce-api/internal/service"
)

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	userHandler    *handler.UserHandler
	productHandler *handler.ProductHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
}

func NewServer(
	cfg *config.Config,
	userService service.UserService,
	productService service.ProductService,
	orderService service.OrderService,
	paymentService service.PaymentService,
) *Server {
	e := echo.New()
	e.HideBanner = true

	// echo v4.13 has no zero-config RequestLogger(); this mirrors the
	// default config that helper applies in newer releases.
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogLatency:       true,
		LogRemoteIP:      true,
		LogHost:          true,
		LogMethod:        true,
		LogURI:           true,
		LogRequestID:     true,
		LogUserAgent:     true,
		LogStatus:        true,
		LogError:         true,
		LogContentLength: true,
		LogResponseSize:  true,
		HandleError:      true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error == nil {
				slog.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
					slog.String("host", v.Host),
					slog.String("bytes_in", v.ContentLength),
					slog.Int64("bytes_out", v.ResponseSize),
					slog.String("user_agent", v.UserAgent),
					slog.String("remote_ip", v.RemoteIP),
					slog.String("request_id", v.RequestID),
				)
			} else {
				slog.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
					slog.String("host", v.Host),
					slog.String("bytes_in", v.ContentLength),
					slog.Int64("bytes_out", v.ResponseSize),
					slog.String("user_agent", v.UserAgent),
					slog.String("remote_ip", v.RemoteIP),
					slog.String("request_id", v.RequestID),
					slog.String("error", v.Error.Error()),
				)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:           e,
		cfg:            cfg,
		userHandler:    handler.NewUserHandler(userService),
		productHandler: handler.NewProductHandler(productService),
		orderHandler:   handler.NewOrderHandler(orderService),
		paymentHandler: handler.NewPaymentHandler(paymentService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.echo

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := e.Group("/auth")
	auth.POST("/register", s.userHandler.Register)
	auth.POST("/login", s.userHandler.Login)

	authRequired := middleware.JWTAuth(s.cfg.Auth.AccessTokenSecret)

	user := e.Group("/user", authRequired)
	user.GET("", s.userHandler.GetAll)
	user.GET("/:id", s.userHandler.GetByID)
	user.PUT("/:id", s.userHandler.Update)
	user.DELETE("/:id", s.userHandler.Delete)

	product := e.Group("/product")
	product.GET("", s.productHandler.GetAll)
	product.GET("/:id", s.productHandler.GetByID)
	product.POST("", s.productHandler.Create, authRequired)
	product.DELETE("/:id", s.productHandler.Delete, authRequired)

	order := e.Group("/order")
	order.POST("", s.orderHandler.Create)
	order.GET("", s.orderHandler.GetAll, authRequired)
	order.GET("/filterOrderByStatus", s.orderHandler.FilterByStatus, authRequired)
	order.GET("/revenueStatistics", s.orderHandler.Revenue, authRequired)
	order.GET("/soldProductsStatistics", s.orderHandler.SoldProducts, authRequired)
	order.GET("/soldProductsByMonthAndYear", s.orderHandler.SoldProductsByMonth, authRequired)
	order.GET("/soldProductsStatisticsById", s.orderHandler.SoldProductsByProduct, authRequired)
	order.GET("/:id", s.orderHandler.GetByID)
	order.PUT("/updateStatusorder", s.orderHandler.UpdateStatus, authRequired)
	order.DELETE("/:id", s.orderHandler.Delete, authRequired)

	// -------- payment gateway --------
	order.POST("/vnpay/create-payment", s.paymentHandler.CreateVNPayPayment)
	order.POST("/payos/create-payment", s.paymentHandler.CreatePayOSPayment)

	// -------- gateway confirmations --------
	// return-redirect comes from the buyer's browser, the webhook from the
	// gateway itself; both feed the same settlement path
	order.GET("/vnpay/return", s.paymentHandler.VNPayReturn)
	order.POST("/payos/webhook", s.paymentHandler.PayOSWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
