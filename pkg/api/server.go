// Package api wires the team orchestration service's gin HTTP surface:
// POST /chat and POST /teams/chat stream a turn's events as SSE
// (spec §4.9); POST /teams/:conversationId/parse forces team
// extraction outside the normal confirmation flow.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/config"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	dispatcher *chat.Dispatcher // nil until set
}

// NewServer creates a new API server with gin and registers its routes.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		engine: gin.New(),
		cfg:    cfg,
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(securityHeaders())
	s.setupRoutes()
	return s
}

// SetDispatcher sets the chat dispatcher that backs every chat route.
func (s *Server) SetDispatcher(d *chat.Dispatcher) {
	s.dispatcher = d
}

// ValidateWiring checks that all required collaborators have been wired
// via their Set* methods, so wiring gaps are caught at startup instead
// of surfacing as 500s at request time.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.dispatcher == nil {
		errs = append(errs, fmt.Errorf("dispatcher not set (call SetDispatcher)"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("server wiring incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/chat", s.chatHandler)
	v1.POST("/teams/chat", s.teamsChatHandler)
	v1.POST("/teams/:conversationId/parse", s.parseTeamHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	_, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	if s.dispatcher == nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "version": version.Full()})
}
