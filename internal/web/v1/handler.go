package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	logicv1 "github.com/sparknet/session-service/internal/logic/v1"
	"github.com/sparknet/session-service/middleware"
)

// Header names for client metadata attached to every validation.
const (
	DeviceHeader = "X-Device"
	AppHeader    = "X-App"
	CredHeader   = "X-Session-Cred"
)

// Handler groups HTTP handlers for the session API v1.
// Dependencies are injected via the constructor; no global state.
type Handler struct {
	sessions    *logicv1.SessionService
	tokenHeader string
}

// NewHandler creates a new Handler. tokenHeader is the request header
// carrying the opaque session token.
func NewHandler(sessions *logicv1.SessionService, tokenHeader string) *Handler {
	return &Handler{sessions: sessions, tokenHeader: tokenHeader}
}

// RegisterRoutes registers all session API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.Create)
	rg.POST("/sessions/validate", h.Validate)
	rg.GET("/sessions", h.List)
	rg.GET("/sessions/owner", h.Owner)
	rg.GET("/sessions/cred", h.Cred)
	rg.DELETE("/sessions", h.Destroy)
	rg.GET("/sessions/data/:key", h.GetValue)
	rg.PUT("/sessions/data/:key", h.SetValue)
	rg.DELETE("/sessions/data/:key", h.RemoveValue)
}

// token reads the opaque session token from the configured header.
func (h *Handler) token(c *gin.Context) string {
	return c.GetHeader(h.tokenHeader)
}

// cred reads the optional credential tag. A missing header means no
// credential dimension (nil), which only matches sessions created
// without one.
func cred(c *gin.Context) *string {
	values := c.Request.Header.Values(CredHeader)
	if len(values) == 0 {
		return nil
	}
	return &values[0]
}

type createRequest struct {
	UID            string  `json:"uid" binding:"required"`
	Cred           *string `json:"cred"`
	TimeoutMinutes int     `json:"timeout_minutes"`
}

// Create issues a new session and returns its id. The client must
// present the id in the token header on subsequent requests.
func (h *Handler) Create(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.sessions.Create(ctx, req.UID, req.Cred,
		c.GetHeader(DeviceHeader), c.GetHeader(AppHeader), c.ClientIP(),
		req.TimeoutMinutes)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session create failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	logger.Info().Str("uid", req.UID).Msg("Session created")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Validate checks the presented token and, on success, refreshes the
// sliding expiry and client metadata. 401 is the normal answer for an
// unknown, mismatched, or expired token.
func (h *Handler) Validate(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	ok, err := h.sessions.Validate(ctx, h.token(c), cred(c),
		c.GetHeader(DeviceHeader), c.GetHeader(AppHeader), c.ClientIP())
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session validation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// List returns all active sessions for the uid/cred pair, without
// payloads.
func (h *Handler) List(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var credParam *string
	if value, exists := c.GetQuery("cred"); exists {
		credParam = &value
	}

	sessions, err := h.sessions.ListActive(ctx, c.Query("uid"), credParam)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session list failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Owner returns the uid owning the presented token.
func (h *Handler) Owner(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	uid, err := h.sessions.Owner(ctx, h.token(c))
	if err != nil {
		h.lookupError(c, span, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uid": uid})
}

// Cred returns the credential tag stored for the presented token.
func (h *Handler) Cred(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	value, err := h.sessions.Cred(ctx, h.token(c))
	if err != nil {
		h.lookupError(c, span, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cred": value})
}

// Destroy deletes the session bound to the presented token. Destroying
// an already-gone session still answers 204.
func (h *Handler) Destroy(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if err := h.sessions.Destroy(ctx, h.token(c)); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session destroy failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetValue reads one key from the session payload through a
// per-request handle. The token is validated first; payload access
// never happens on an unvalidated token.
func (h *Handler) GetValue(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	handle, ok := h.validatedHandle(ctx, c, span, logger)
	if !ok {
		return
	}

	value, present, err := handle.Get(ctx, c.Param("key"))
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !present {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

type setValueRequest struct {
	Value string `json:"value"`
}

// SetValue writes one key into the session payload and persists it.
// The handle's in-memory mutation and the explicit save both happen
// within this request, since the handle does not outlive it.
func (h *Handler) SetValue(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req setValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handle, ok := h.validatedHandle(ctx, c, span, logger)
	if !ok {
		return
	}

	if err := handle.Set(ctx, c.Param("key"), req.Value); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := handle.SaveChanges(ctx); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveValue deletes one key from the session payload and persists
// the result.
func (h *Handler) RemoveValue(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	handle, ok := h.validatedHandle(ctx, c, span, logger)
	if !ok {
		return
	}

	if err := handle.Remove(ctx, c.Param("key")); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session remove failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := handle.SaveChanges(ctx); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// validatedHandle runs the validation gate for the presented token and
// binds a handle to it. Replies 401 and returns ok=false when the
// token does not pass.
func (h *Handler) validatedHandle(ctx context.Context, c *gin.Context, span trace.Span, logger *zerolog.Logger) (*logicv1.SessionHandle, bool) {
	valid, err := h.sessions.Validate(ctx, h.token(c), cred(c),
		c.GetHeader(DeviceHeader), c.GetHeader(AppHeader), c.ClientIP())
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Session validation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return nil, false
	}

	return h.sessions.Handle(h.token(c)), true
}

// lookupError maps point-lookup failures to HTTP statuses.
func (h *Handler) lookupError(c *gin.Context, span trace.Span, logger *zerolog.Logger, err error) {
	span.RecordError(err)

	if errors.Is(err, logicv1.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	logger.Error().Err(err).Msg("Session lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
