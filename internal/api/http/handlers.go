package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagepatch/internal/api/middleware"
	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/pagepatch/internal/patch"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// PatchRequest is the body of POST /v1/patch.
type PatchRequest struct {
	URL  string `json:"url" binding:"omitempty,url"`
	HTML string `json:"html" binding:"required"`
	// Suggestions is a record list or an envelope; absent means fetch for URL.
	Suggestions    json.RawMessage `json:"suggestions"`
	StructuredData json.RawMessage `json:"structured_data"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service *patch.Service
	metrics *monitoring.Metrics
	logger  *zap.Logger
	maxBody int64
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(service *patch.Service, metrics *monitoring.Metrics, logger *zap.Logger, maxBody int64) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBody <= 0 {
		maxBody = dom.MaxHTMLSize
	}
	return &Handlers{
		service: service,
		metrics: metrics,
		logger:  logger,
		maxBody: maxBody,
	}
}

// Register mounts the routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	v1 := r.Group("/v1")
	v1.POST("/patch", h.Patch)
	v1.POST("/patch/raw", h.PatchRaw)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "pagepatch",
		"version": Version,
	})
}

// Health reports liveness, the suggestion service breaker and running totals
func (h *Handlers) Health(c *gin.Context) {
	fetcher := gin.H{"enabled": h.service.CanFetch()}
	if b, ok := h.service.Fetcher().(interface{ BreakerState() resilience.State }); ok {
		fetcher["breaker"] = b.BreakerState().String()
	}

	body := gin.H{
		"status":      "ok",
		"suggestions": fetcher,
	}
	if h.metrics != nil {
		body["stats"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Patch applies posted or fetched suggestions to a posted document
func (h *Handlers) Patch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	var req PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bodyStatus(err), err)
		return
	}

	doc, err := dom.Parse(req.HTML)
	if err != nil {
		h.fail(c, bodyStatus(err), err)
		return
	}

	var batch *suggestion.Batch
	if present(req.Suggestions) {
		if batch, err = suggestion.Decode(req.Suggestions); err != nil {
			h.fail(c, http.StatusBadRequest, err)
			return
		}
		if present(req.StructuredData) {
			batch.StructuredData = req.StructuredData
		}
	}

	res, err := h.service.Patch(c.Request.Context(), patch.Request{
		PageURL:  req.URL,
		Document: doc,
		Batch:    batch,
	})
	if err != nil {
		h.fail(c, patchStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PatchRaw patches a raw HTML body with the suggestions fetched for ?url=
// and returns the document itself. The report travels in headers.
func (h *Handlers) PatchRaw(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		h.fail(c, bodyStatus(err), err)
		return
	}

	if mt := mimetype.Detect(data); !mt.Is("text/html") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error":    "body is not html",
			"detected": mt.String(),
		})
		return
	}

	doc, err := dom.Load(bytes.NewReader(data))
	if err != nil {
		h.fail(c, bodyStatus(err), err)
		return
	}

	res, err := h.service.Patch(c.Request.Context(), patch.Request{
		PageURL:  c.Query("url"),
		Document: doc,
	})
	if err != nil {
		h.fail(c, patchStatus(err), err)
		return
	}

	c.Header("X-Patch-Run", res.RunID.String())
	c.Header("X-Patch-Applied", strconv.Itoa(res.Report.Applied))
	c.Header("X-Patch-Failed", strconv.Itoa(res.Report.Failed+res.Report.Rejected))
	c.Header("X-Patch-Touched", strconv.Itoa(res.Report.Touched))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(res.HTML))
}

func (h *Handlers) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Patch request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Int("status", status),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// present reports whether raw holds a JSON value other than null.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, dom.ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func patchStatus(err error) int {
	switch {
	case errors.Is(err, patch.ErrNoSource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, patch.ErrPageURLRequired):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// upstream status errors and malformed payloads
		return http.StatusBadGateway
	}
}
