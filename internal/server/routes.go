package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Root - plain liveness text for load balancer checks
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(200, "WebSocket & HTTP Server Running")
	})

	// Duplex endpoint - all roles connect here and identify themselves
	s.echo.GET("/ws", s.handleWebSocket)

	// REST surface consumed by the browser UI
	s.echo.GET("/api/uploads", s.handleListApproved)
	s.echo.GET("/api/uploads/all", s.handleListAll)
	s.echo.GET("/api/pending", s.handleListPending)
	s.echo.POST("/api/upload", s.handleUpload, newRateLimiter(s.config.UploadRatePerSecond, s.config.UploadRateBurst))
	s.echo.POST("/api/review/:id", s.handleReview)
	s.echo.DELETE("/api/uploads/delete/:id", s.handleDelete)

	// Connected-client diagnostics
	s.echo.GET("/status", s.handleStatus)
}
