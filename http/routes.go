package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Health check routes (public)
	s.echo.GET("/health", s.handleHealthCheck)
	s.echo.GET("/health/live", s.handleLivenessCheck)
	s.echo.GET("/health/ready", s.handleReadinessCheck)

	// Prometheus scrape endpoint (public)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected routes (require a gateway officer identity)
	api := s.echo.Group("/api")
	api.Use(s.RequireOfficer())

	// Violation rule catalog
	api.POST("/rules", s.handleCreateRule)
	api.GET("/rules", s.handleListRules)
	api.GET("/rules/:id", s.handleGetRule)
	api.PUT("/rules/:id", s.handleUpdateRule)
	api.POST("/rules/:id/deactivate", s.handleDeactivateRule)
	api.DELETE("/rules/:id", s.handleDeleteRule)

	// Penalty application and violation records
	api.POST("/rules/:id/apply", s.handleApplyPenalty)
	api.GET("/records", s.handleListRecords)
	api.GET("/records/:id", s.handleGetRecord)
	api.PUT("/records/:id/status", s.handleUpdateRecordStatus)

	// Field compliance checks
	api.POST("/checks", s.handleCreateCheck)
	api.GET("/checks", s.handleListChecks)
	api.GET("/checks/:id", s.handleGetCheck)
	api.PUT("/checks/:id", s.handleUpdateCheck)
	api.DELETE("/checks/:id", s.handleDeleteCheck)

	// Compliance violation review
	api.GET("/violations/:id", s.handleGetViolation)
	api.POST("/violations/:id/verify", s.handleVerifyViolation)
	api.POST("/violations/:id/appeal", s.handleAppealViolation)
	api.POST("/violations/:id/resolve", s.handleResolveViolation)
	api.POST("/violations/:id/dismiss", s.handleDismissViolation)

	// Analytics
	api.GET("/analytics/stats", s.handleComputeStats)
	api.POST("/reports", s.handleGenerateReport)
	api.POST("/reports/async", s.handleEnqueueReport)
	api.GET("/reports", s.handleListReports)
	api.GET("/reports/jobs/:jobId", s.handleGetReportJob)
}
