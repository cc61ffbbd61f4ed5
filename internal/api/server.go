// Package api exposes the analysis host surface: the one-shot HTTP
// explain endpoint, the persistent WebSocket channel, and the admin and
// observability routes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/cache"
	"github.com/GALIB-Dev/AI-Extension/internal/config"
	"github.com/GALIB-Dev/AI-Extension/internal/orchestrator"
	"github.com/GALIB-Dev/AI-Extension/internal/protocol"
)

// Server represents the API server.
type Server struct {
	config       *config.Config
	cache        *cache.Manager
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
	router       *gin.Engine
	srv          *http.Server
	upgrader     websocket.Upgrader
}

// ErrorResponse represents an error response on the admin routes.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, cacheManager *cache.Manager, orch *orchestrator.Orchestrator, logger zerolog.Logger) *Server {
	s := &Server{
		config:       cfg,
		cache:        cacheManager,
		orchestrator: orch,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The caller runs inside extension pages; origins vary.
				return true
			},
		},
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Middleware
	r.Use(s.requestIDMiddleware())
	r.Use(s.loggingMiddleware())
	r.Use(s.recoveryMiddleware())
	r.Use(s.corsMiddleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// One-shot analysis channel
		v1.POST("/explain", s.handleExplain)

		// Provider availability table
		v1.GET("/providers", s.handleProviders)

		// Cache administration
		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", s.handleCacheStats)
			cacheGroup.DELETE("", s.handleClearCache)
			cacheGroup.DELETE("/key/:key", s.handleDeleteCacheKey)
		}
	}

	// Persistent analysis channel
	r.GET("/ws/explain", s.handleWebSocketExplain)

	s.router = r
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.cache.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": s.config.Version,
		"cache": gin.H{
			"memory_size":     stats.MemorySize,
			"persistent_size": stats.PersistentSize,
			"hit_rate":        stats.HitRate,
		},
		"timestamp": time.Now().Unix(),
	})
}

// handleExplain serves the one-shot request/response channel. It accepts
// the same envelope as the WebSocket path and resolves to the same
// response shape.
func (s *Server) handleExplain(c *gin.Context) {
	var req protocol.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.FromError("", analysis.CodeTransport, "malformed request envelope"))
		return
	}

	if req.Type != protocol.MsgExplainText {
		c.JSON(http.StatusBadRequest, protocol.FromError(req.CorrelationID, analysis.CodeTransport, "unsupported message type"))
		return
	}

	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}

	result, err := s.orchestrator.Explain(c.Request.Context(), analysis.Request{
		Text:          req.Payload.Text,
		PageContext:   req.Payload.PageContext,
		CorrelationID: req.CorrelationID,
		Options:       req.Payload.Options,
	})
	if err != nil {
		var analysisErr *analysis.Error
		if errors.As(err, &analysisErr) && analysisErr.Code == analysis.CodeInputTooShort {
			c.JSON(http.StatusBadRequest, protocol.FromError(req.CorrelationID, analysisErr.Code, analysisErr.Message))
			return
		}
		s.logger.Error().Err(err).Str("correlation_id", req.CorrelationID).Msg("Explain failed")
		c.JSON(http.StatusInternalServerError, protocol.FromError(req.CorrelationID, analysis.CodeProvider, "analysis failed"))
		return
	}

	c.JSON(http.StatusOK, protocol.FromResult(req.CorrelationID, result))
}

func (s *Server) handleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": s.orchestrator.Providers(),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":     s.cache.Stats(),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleClearCache(c *gin.Context) {
	if err := s.cache.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear cache")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "internal_error",
			Message:   "Failed to clear cache",
			RequestID: c.GetString("request_id"),
			Timestamp: time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleDeleteCacheKey(c *gin.Context) {
	key := c.Param("key")

	if err := s.cache.Delete(key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete cache key")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "internal_error",
			Message:   "Failed to delete cache key",
			RequestID: c.GetString("request_id"),
			Timestamp: time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": key})
}
