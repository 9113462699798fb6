package api

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/config"
	"github.com/Last-emo-boy/github-bot/internal/errors"
	"github.com/Last-emo-boy/github-bot/internal/github"
	"github.com/Last-emo-boy/github-bot/internal/logging"
	"github.com/Last-emo-boy/github-bot/internal/metrics"
	"github.com/Last-emo-boy/github-bot/internal/models"
	"github.com/Last-emo-boy/github-bot/internal/store"
	"github.com/Last-emo-boy/github-bot/internal/webhook"
	"github.com/Last-emo-boy/github-bot/pkg/headers"
	"github.com/gin-gonic/gin"
)

// DeliveryLog records webhook delivery outcomes. Implemented by the SQLite
// store; nil disables logging. deliveryID is GitHub's X-Github-Delivery
// value and may be empty.
type DeliveryLog interface {
	RecordDelivery(deliveryID, eventType, outcome, detail string) error
}

// Server is the HTTP gateway: the OAuth callback route and the webhook
// intake route, plus health and metrics. It owns no business state beyond
// wiring; tokens live in the store, exchange and listing in the github
// package.
type Server struct {
	router      *gin.Engine
	config      config.ServerConfig
	exchanger   *github.Exchanger
	tokens      store.TokenStore
	ingestor    *webhook.Ingestor
	deliveries  DeliveryLog
	metrics     *metrics.Metrics
	logger      *logging.Logger
	rateLimiter *IPRateLimiter

	mu         sync.Mutex
	httpServer *http.Server
	started    bool
}

// Router returns the gin router for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// NewServer creates a new gateway server
func NewServer(cfg config.ServerConfig, apiCfg config.APIConfig, exchanger *github.Exchanger, tokens store.TokenStore, ingestor *webhook.Ingestor) *Server {
	gin.SetMode(gin.ReleaseMode)

	m := metrics.NewMetrics("githubbot")
	logger := logging.NewLogger(logging.WithLevel(logging.ParseLevel(cfg.LogLevel)))

	requestsPerMinute := apiCfg.RateLimit.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = 600
	}
	burst := apiCfg.RateLimit.Burst
	if burst <= 0 {
		burst = 60
	}
	rateLimiter := newIPRateLimiter(time.Minute/time.Duration(requestsPerMinute), burst)

	server := &Server{
		router:      gin.New(),
		config:      cfg,
		exchanger:   exchanger,
		tokens:      tokens,
		ingestor:    ingestor,
		metrics:     m,
		logger:      logger,
		rateLimiter: rateLimiter,
	}
	server.router.HandleMethodNotAllowed = true

	server.router.Use(gin.Recovery())
	server.router.Use(rateLimitMiddleware(rateLimiter))
	server.router.Use(bodyLimitMiddleware(1 << 20))
	server.router.Use(metrics.Middleware(m, logger))
	server.router.Use(loggingMiddleware(logger))

	server.setupRoutes()
	return server
}

// SetDeliveryLog attaches a webhook delivery log.
func (s *Server) SetDeliveryLog(dl DeliveryLog) {
	s.deliveries = dl
}

// Metrics returns the metrics instance for external recording.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
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

// setupRoutes configures all gateway routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Health check
	s.router.GET("/health", s.handleHealth)

	// OAuth callback and webhook intake. GitHub drives both, so there is no
	// auth middleware; the webhook route is optionally guarded by the
	// signature secret inside the ingestor.
	s.router.GET("/github/authorize", s.handleAuthorizeCallback)
	s.router.POST("/github/webhook", s.handleWebhook)
}

// handleHealth returns health status
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"authorized": s.tokens.Len(),
	})
}

// handleAuthorizeCallback completes the OAuth flow: GitHub redirects here
// with a code and the state the authorization link carried. The exchanged
// token is stored under the state, which is the caller's identity.
// Responses are plain text; the user sees them in a browser tab.
func (s *Server) handleAuthorizeCallback(c *gin.Context) {
	code := c.Query("code")
	state := models.CallerIdentity(c.Query("state"))

	// Reject before touching the token endpoint.
	if code == "" || !state.Valid() {
		s.metrics.RecordError("missing_parameter", "/github/authorize", http.MethodGet)
		c.String(http.StatusBadRequest, "missing code or state parameter")
		return
	}

	token, err := s.exchanger.Exchange(c.Request.Context(), code, state)
	if err != nil {
		var denied *errors.ErrAuthorizationDenied
		var unavailable *errors.ErrUpstreamUnavailable
		switch {
		case goerrors.As(err, &denied):
			s.metrics.RecordOAuthExchange("denied")
		case goerrors.As(err, &unavailable):
			s.metrics.RecordOAuthExchange("unavailable")
		default:
			s.metrics.RecordOAuthExchange("error")
		}
		s.logger.ErrorWithContext(c.Request.Context(), "oauth exchange failed",
			"identity", state.String(),
			"error", err.Error(),
		)
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.tokens.Put(state, token)
	s.metrics.RecordOAuthExchange("success")
	s.metrics.SetAuthorizedIdentities(s.tokens.Len())

	s.logger.InfoWithContext(c.Request.Context(), "oauth authorization completed",
		"identity", state.String(),
	)

	c.String(http.StatusOK, "GitHub authorization successful. You can now use the GitHub commands.")
}

// handleWebhook accepts a webhook delivery, decodes it and forwards the
// notification. A forwarding failure yields 502 so GitHub retries the
// delivery on its own schedule.
func (s *Server) handleWebhook(c *gin.Context) {
	eventType := headers.EventType(c.Request.Header)
	deliveryID := headers.DeliveryID(c.Request.Header)

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.metrics.RecordWebhookEvent(eventType, "rejected")
		s.recordDelivery(deliveryID, eventType, store.DeliveryRejected, err.Error())
		c.String(http.StatusBadRequest, fmt.Sprintf("failed to read webhook payload: %v", err))
		return
	}

	message, err := s.ingestor.Ingest(c.Request.Header, rawBody)
	if err != nil {
		var badSig *errors.ErrInvalidSignature
		var malformed *errors.ErrMalformedPayload
		switch {
		case goerrors.As(err, &badSig):
			s.metrics.RecordWebhookEvent(eventType, "rejected")
			s.recordDelivery(deliveryID, eventType, store.DeliveryRejected, err.Error())
			c.String(http.StatusForbidden, err.Error())
		case goerrors.As(err, &malformed):
			s.metrics.RecordWebhookEvent(eventType, "rejected")
			s.recordDelivery(deliveryID, eventType, store.DeliveryRejected, err.Error())
			c.String(http.StatusBadRequest, err.Error())
		default:
			// The message was built but could not be forwarded.
			s.metrics.RecordWebhookEvent(eventType, "failed")
			s.recordDelivery(deliveryID, eventType, store.DeliveryFailed, err.Error())
			s.logger.ErrorWithContext(c.Request.Context(), "webhook forward failed",
				"event_type", eventType,
				"error", err.Error(),
			)
			c.String(http.StatusBadGateway, err.Error())
		}
		return
	}

	if s.ingestor.Forwards() {
		s.metrics.RecordWebhookEvent(eventType, "forwarded")
		s.recordDelivery(deliveryID, eventType, store.DeliveryForwarded, "")
	} else {
		s.metrics.RecordWebhookEvent(eventType, "skipped")
		s.recordDelivery(deliveryID, eventType, store.DeliverySkipped, "no forward target configured")
	}
	s.logger.InfoWithContext(c.Request.Context(), "webhook forwarded",
		"event_type", eventType,
		"delivery_id", deliveryID,
		"message_bytes", len(message),
	)

	c.String(http.StatusOK, "Webhook received")
}

func (s *Server) recordDelivery(deliveryID, eventType, outcome, detail string) {
	if s.deliveries == nil {
		return
	}
	if err := s.deliveries.RecordDelivery(deliveryID, eventType, outcome, detail); err != nil {
		s.logger.Error("failed to record webhook delivery", "error", err.Error())
	}
}

// Start begins serving in the background. It is idempotent: calling it on a
// running server is a no-op, replacing the source's process-wide
// "already started" flag with an explicit lifecycle.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &errors.ErrServerStart{Addr: addr, Err: err}
	}

	s.httpServer = NewHTTPServer(addr, s.router)
	s.started = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server terminated", "error", err.Error())
		}
	}()

	s.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// Stop gracefully shuts the server down. Safe to call multiple times and
// before Start.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return &errors.ErrServerShutdown{Err: err}
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the listen address the server is configured for.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
}
