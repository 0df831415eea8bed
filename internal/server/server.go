// Package server exposes EventService as the REST events API.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/calendar/internal/auth"
	"github.com/mmynk/calendar/internal/metrics"
	"github.com/mmynk/calendar/internal/middleware"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/service"
	"github.com/mmynk/calendar/internal/storage"
)

// Options configures the optional parts of the router.
type Options struct {
	// Metrics enables request instrumentation and the /metrics endpoint.
	Metrics *metrics.Metrics
	// JWT, when set, requires a bearer token on every /api route.
	JWT *auth.JWTManager
}

// Handler serves the events API.
type Handler struct {
	svc *service.EventService
}

// New builds the gin engine with all routes registered.
func New(svc *service.EventService, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if opts.Metrics != nil {
		r.Use(middleware.Instrument(opts.Metrics))
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if opts.JWT != nil {
		api.Use(middleware.RequireAuth(opts.JWT))
	}
	RegisterRoutes(api, &Handler{svc: svc})
	return r
}

// RegisterRoutes mounts the events API on g.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("/events", h.ListEvents)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)

	g.POST("/events-list", h.CreateSeries)
	g.PUT("/recurring-events/:groupId", h.UpdateSeries)
	g.DELETE("/recurring-events/:groupId", h.DeleteSeries)
}

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.svc.ListEvents(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.EventList{Events: events})
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		sendError(c, badRequest(err))
		return
	}
	created, err := h.svc.CreateEvent(c.Request.Context(), event)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		sendError(c, badRequest(err))
		return
	}
	updated, err := h.svc.UpdateEvent(c.Request.Context(), c.Param("id"), event)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSeries(c *gin.Context) {
	var req models.EventList
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, badRequest(err))
		return
	}
	created, err := h.svc.CreateSeries(c.Request.Context(), req.Events)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.EventList{Events: created})
}

func (h *Handler) UpdateSeries(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		sendError(c, badRequest(err))
		return
	}
	updated, err := h.svc.UpdateSeries(c.Request.Context(), c.Param("groupId"), patch)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.EventList{Events: updated})
}

func (h *Handler) DeleteSeries(c *gin.Context) {
	if err := h.svc.DeleteSeries(c.Request.Context(), c.Param("groupId")); err != nil {
		sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func badRequest(err error) error {
	return errors.Join(service.ErrInvalidArgument, err)
}

// sendError maps service errors onto HTTP status codes.
func sendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	default:
		slog.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
