// Package api provides the HTTP status and metrics surface of a Quill
// node.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/network"
	"github.com/quillwire/quill-node/pkg/storage"
)

// Server exposes node status over HTTP.
type Server struct {
	node       *network.Server
	journal    *storage.PushJournal // optional
	router     *gin.Engine
	port       int
	httpServer *http.Server
}

// Config holds server configuration
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewServer creates the status server for a node. journal may be nil
// when the node runs without one.
func NewServer(node *network.Server, journal *storage.PushJournal, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	// Release mode keeps gin quiet in production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		node:    node,
		journal: journal,
		router:  router,
		port:    config.Port,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/connections", s.handleConnections)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	ActiveConnections int     `json:"active_connections"`
	JournaledPushes   int64   `json:"journaled_pushes,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := StatusResponse{
		UptimeSeconds:     s.node.Uptime().Seconds(),
		ActiveConnections: s.node.ActiveConnections(),
	}

	if s.journal != nil {
		count, err := s.journal.Count()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.JournaledPushes = count
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConnections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": s.node.Fingerprints(),
	})
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Int("port", s.port).Msg("status API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("status API failed")
		}
	}()
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
