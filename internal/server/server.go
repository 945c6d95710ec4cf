package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/moneymap/payments/internal/config"
	"github.com/moneymap/payments/internal/handler"
	"github.com/moneymap/payments/internal/middleware"
	"github.com/moneymap/payments/pkg/logger"
)

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	logger         *logger.Logger
	paymentHandler *handler.PaymentHandler
	ruleHandler    *handler.RuleHandler
	alertHandler   *handler.AlertHandler
	healthHandler  *handler.HealthHandler
	metricsHandler http.Handler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	paymentHandler *handler.PaymentHandler,
	ruleHandler *handler.RuleHandler,
	alertHandler *handler.AlertHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	return &Server{
		echo:           e,
		cfg:            cfg,
		logger:         log,
		paymentHandler: paymentHandler,
		ruleHandler:    ruleHandler,
		alertHandler:   alertHandler,
		healthHandler:  healthHandler,
		metricsHandler: metricsHandler,
	}
}

func (s *Server) Start() error {
	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	s.echo.POST("/payments", s.paymentHandler.Create)
	s.echo.GET("/payments", s.paymentHandler.List)
	s.echo.GET("/payments/:id", s.paymentHandler.GetByID)
	s.echo.GET("/payments/reference/:reference", s.paymentHandler.GetByReference)
	s.echo.GET("/payments/:id/history", s.paymentHandler.GetHistory)
	s.echo.PUT("/payments/:id/status", s.paymentHandler.UpdateStatus)

	s.echo.POST("/rules", s.ruleHandler.Create)
	s.echo.GET("/rules", s.ruleHandler.List)
	s.echo.GET("/rules/types", s.ruleHandler.Types)
	s.echo.GET("/rules/:id", s.ruleHandler.GetByID)
	s.echo.PUT("/rules/:id", s.ruleHandler.Update)
	s.echo.DELETE("/rules/:id", s.ruleHandler.Delete)
	s.echo.PUT("/rules/:id/activate", s.ruleHandler.Activate)
	s.echo.PUT("/rules/:id/deactivate", s.ruleHandler.Deactivate)
	s.echo.POST("/rules/:id/reevaluate", s.ruleHandler.ReEvaluate)

	s.echo.GET("/alerts", s.alertHandler.List)
	s.echo.GET("/alerts/open/prioritized", s.alertHandler.OpenPrioritized)
	s.echo.GET("/alerts/stats", s.alertHandler.Statistics)
	s.echo.GET("/alerts/:id", s.alertHandler.GetByID)
	s.echo.POST("/alerts/:id/acknowledge", s.alertHandler.Acknowledge)
	s.echo.PUT("/alerts/:id/status", s.alertHandler.UpdateStatus)
}

func (s *Server) Handler() *echo.Echo {
	s.setupMiddleware()
	s.setupRoutes()
	return s.echo
}
