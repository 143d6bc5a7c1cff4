// Package httpapi exposes the ordering service over HTTP/JSON.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"widgetboard/internal/ordering"
	"widgetboard/internal/transport"
	"widgetboard/internal/widget"
)

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Handler struct {
	svc *ordering.Service
	cfg Config
	log *slog.Logger
}

func New(svc *ordering.Service, cfg Config, log *slog.Logger) *Handler {
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, cfg: cfg, log: log}
}

// Router builds the gin engine with request logging and panic recovery.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(h.log), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := r.Group("/api/widgets")
	v1.POST("", h.create)
	v1.PUT("", h.update)
	v1.GET("", h.list)
	v1.GET("/:id", h.get)
	v1.DELETE("/:id", h.delete)

	r.GET("/api/v2/widgets", h.listPage)
	return r
}

func (h *Handler) create(c *gin.Context) {
	var req transport.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	w, err := h.svc.Create(c.Request.Context(), req.Draft())
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, transport.FromWidget(w))
}

func (h *Handler) update(c *gin.Context) {
	var req transport.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	w, err := h.svc.Update(c.Request.Context(), req.ID, req.Update())
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, transport.FromWidget(w))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	w, found := h.svc.Get(id)
	if !found {
		h.fail(c, http.StatusNotFound, widget.NotFound(id))
		return
	}
	c.JSON(http.StatusOK, transport.FromWidget(w))
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, transport.FromWidgets(h.svc.List()))
}

func (h *Handler) listPage(c *gin.Context) {
	index, err := queryInt(c, "page", 0)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	size, err := queryInt(c, "size", h.cfg.DefaultPageSize)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if size > h.cfg.MaxPageSize {
		size = h.cfg.MaxPageSize
	}
	p, err := widget.NewPage(index, size)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	c.Header(transport.TotalCountHeader, strconv.Itoa(h.svc.Count()))
	c.JSON(http.StatusOK, transport.FromWidgets(h.svc.ListPage(p)))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.svc.Delete(c.Request.Context(), id)
	c.Status(http.StatusOK)
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, &widget.ValidationError{Field: "id", Reason: err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, transport.ErrorResponse{
		Timestamp: time.Now(),
		Message:   err.Error(),
	})
}

// statusFor maps service errors to responses. Both caller mistakes are 400:
// an update naming an unknown id is a bad request, not a missing resource.
func statusFor(err error) int {
	switch {
	case widget.IsValidation(err), errors.Is(err, widget.ErrNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &widget.ValidationError{Field: key, Reason: "not an integer"}
	}
	return v, nil
}
