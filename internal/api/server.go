package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tgrelay/tgrelay/internal/config"
	apperrors "github.com/tgrelay/tgrelay/internal/errors"
	"github.com/tgrelay/tgrelay/internal/logging"
	"github.com/tgrelay/tgrelay/internal/metrics"
	"github.com/tgrelay/tgrelay/internal/telegram"
	"github.com/tgrelay/tgrelay/pkg/headers"
)

// Server is the HTTP relay server. It accepts inbound messages and forwards
// them to the resolved Telegram chat. Config and chat id are immutable for
// the server's lifetime.
type Server struct {
	router     *gin.Engine
	cfg        *config.Config
	chatID     int64
	sender     telegram.API
	metrics    *metrics.Metrics
	logger     *logging.Logger
	httpServer *http.Server
}

// maxBodyBytes caps inbound request bodies at 1MB.
const maxBodyBytes = 1 << 20

// sendRequest is the JSON relay payload. Message is a pointer so a missing
// field is distinguishable from an empty string.
type sendRequest struct {
	Message *string `json:"message"`
}

// NewServer creates a relay server for an already-resolved chat.
func NewServer(cfg *config.Config, chatID int64, sender telegram.API, m *metrics.Metrics, logger *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		router:  gin.New(),
		cfg:     cfg,
		chatID:  chatID,
		sender:  sender,
		metrics: m,
		logger:  logger,
	}
	server.router.HandleMethodNotAllowed = true

	server.router.Use(gin.Recovery())
	server.router.Use(bodyLimitMiddleware(maxBodyBytes))
	server.router.Use(metrics.Middleware(m, logger))
	server.router.Use(loggingMiddleware(logger))

	server.setupRoutes()
	return server
}

// Router returns the gin router for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// loggingMiddleware provides structured logging for all requests
func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		ctx := logging.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start).Seconds()
		logger.InfoWithContext(ctx, "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_seconds", duration,
		)
	}
}

// bodyLimitMiddleware rejects bodies larger than limit bytes
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// setupRoutes configures all routes. When a path prefix is configured the
// relay surface moves under /<prefix> and nothing is mounted at the root;
// /metrics stays at the root because it is the operator surface, not the
// relay surface.
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	root := "/"
	if prefix := s.cfg.NormalizedPrefix(); prefix != "" {
		root = "/" + prefix
	}

	s.router.POST(root, s.handleSend)
	s.router.POST(path.Join(root, "send"), s.handleSend)
	s.router.GET(path.Join(root, "health"), s.handleHealth)
}

// handleHealth reports liveness. No side effects, no network.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSend relays the request body to Telegram. The body is either raw
// text (sent verbatim) or, when Content-Type declares JSON, a
// {"message": "..."} document.
func (s *Server) handleSend(c *gin.Context) {
	endpoint := c.FullPath()
	parseMode := headers.ParseMode(c.Request.Header)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.metrics.RecordError("body_too_large", endpoint)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		s.metrics.RecordError("body_read", endpoint)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var text string
	if headers.IsJSON(c.Request.Header) {
		var payload sendRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			s.metrics.RecordError("bad_json", endpoint)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
			return
		}
		if payload.Message == nil {
			s.metrics.RecordError("missing_message", endpoint)
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing message field"})
			return
		}
		text = *payload.Message
	} else {
		if len(body) == 0 {
			s.metrics.RecordError("empty_body", endpoint)
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
			return
		}
		text = string(body)
	}

	start := time.Now()
	err = s.sender.SendMessage(s.chatID, text, parseMode)
	s.metrics.RecordTelegramAPICall("sendMessage", time.Since(start).Seconds())

	if err != nil {
		s.metrics.RecordRelayedMessage("error", parseMode)
		s.metrics.RecordError("telegram", endpoint)
		s.logger.ErrorWithContext(c.Request.Context(), "telegram send failed",
			"chat_id", s.chatID,
			"error", err.Error(),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "telegram send failed: " + err.Error()})
		return
	}

	s.metrics.RecordRelayedMessage("sent", parseMode)
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.cfg.ListenAddr
	if s.httpServer == nil {
		s.httpServer = NewHTTPServer(addr, s.router)
	}

	s.logger.Info("starting HTTP server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return &apperrors.ErrServerStart{Addr: addr, Err: err}
	}
	return nil
}

// Shutdown gracefully stops the server within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.httpServer == nil {
		return nil
	}
	if err := GracefulShutdown(s.httpServer, timeout); err != nil {
		return &apperrors.ErrServerShutdown{Err: err}
	}
	return nil
}
