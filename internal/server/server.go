package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/THE3-EDU/web-the3meetup/internal/config"
	apperrors "github.com/THE3-EDU/web-the3meetup/internal/errors"
	"github.com/THE3-EDU/web-the3meetup/internal/intake"
	"github.com/THE3-EDU/web-the3meetup/internal/moderation"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
	"github.com/THE3-EDU/web-the3meetup/internal/ws"
)

// postgresHealthChecker is a minimal interface for database health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	registry   *registry.Registry
	intake     *intake.Service
	moderation *moderation.Service
	gateway    *ws.Gateway
	db         postgresHealthChecker
	startTime  time.Time
}

func NewServer(cfg *config.Config, reg *registry.Registry, intakeSvc *intake.Service, moderationSvc *moderation.Service, gateway *ws.Gateway, db postgresHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:       e,
		config:     cfg,
		registry:   reg,
		intake:     intakeSvc,
		moderation: moderationSvc,
		gateway:    gateway,
		db:         db,
		startTime:  time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
