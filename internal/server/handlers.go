package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/onchain-intel/internal/cache"
	"github.com/aman-zulfiqar/onchain-intel/internal/constants"
	"github.com/aman-zulfiqar/onchain-intel/internal/flags"
	"github.com/aman-zulfiqar/onchain-intel/internal/pipeline"
	"github.com/aman-zulfiqar/onchain-intel/internal/store"
)

// Runner triggers one full pipeline run.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Pipeline Runner             // Pipeline run entrypoint
	Reports  store.ReportStore  // ClickHouse-backed report reads
	Cache    *cache.ReportCache // Redis-backed latest-report cache (optional)
	Flags    *flags.Store       // Redis-backed runtime toggles
	DevMode  bool               // Enable detailed error responses in development
	Logger   *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Run triggers a synchronous pipeline run. The body is optional; a missing
// or zero limit falls back to the configured default.
func (h *Handlers) Run(c echo.Context) error {
	var req RunRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid json", nil)
		}
	}
	return h.run(c, req)
}

// RunGET maps query parameters onto the same input as the POST entrypoint.
func (h *Handlers) RunGET(c echo.Context) error {
	var req RunRequest
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		req.LimitPerProtocol = n
	}
	if v := c.QueryParam("cleanup"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid cleanup", map[string]any{"cleanup": "must be a boolean"})
		}
		req.Cleanup = b
	}
	return h.run(c, req)
}

func (h *Handlers) run(c echo.Context, req RunRequest) error {
	if req.LimitPerProtocol != 0 &&
		(req.LimitPerProtocol < constants.MinProtocolLimit || req.LimitPerProtocol > constants.MaxProtocolLimit) {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{
			"limitPerProtocol": "min 50 max 12000",
		})
	}

	// A full run fetches every domain and calls the completion model.
	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := h.Pipeline.Run(ctx, pipeline.Options{
		LimitPerProtocol: req.LimitPerProtocol,
		Cleanup:          req.Cleanup,
	})
	if err != nil {
		h.Logger.WithError(err).Error("pipeline run failed")
		return h.err(c, http.StatusInternalServerError, "pipeline run failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, RunResponse{Result: result, TookMs: time.Since(start).Milliseconds()})
}

// LatestReport serves the newest report for a tag, preferring the Redis
// cache and falling back to ClickHouse.
func (h *Handlers) LatestReport(c echo.Context) error {
	tag := strings.TrimSpace(c.QueryParam("tag"))
	if tag == "" {
		tag = "daily-intel"
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if h.Cache != nil {
		if report, err := h.Cache.GetLatest(ctx, tag); err == nil {
			return c.JSON(http.StatusOK, report)
		} else if !errors.Is(err, cache.ErrNoReport) {
			h.Logger.WithError(err).Warn("report cache read failed, falling back to store")
		}
	}

	report, err := h.Reports.GetLatestReport(ctx, tag)
	if err != nil {
		return h.err(c, http.StatusNotFound, "no report for tag", map[string]any{"tag": tag})
	}
	return c.JSON(http.StatusOK, report)
}

// ReportByKey retrieves a report by its (date, tag) key.
func (h *Handlers) ReportByKey(c echo.Context) error {
	date := strings.TrimSpace(c.Param("date"))
	tag := strings.TrimSpace(c.Param("tag"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid date", map[string]any{"date": "expected YYYY-MM-DD"})
	}
	if tag == "" {
		return h.err(c, http.StatusBadRequest, "invalid tag", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	report, err := h.Reports.GetReport(ctx, date, tag)
	if err != nil {
		return h.err(c, http.StatusNotFound, "report not found", nil)
	}
	return c.JSON(http.StatusOK, report)
}

// FlagsUpsert creates or updates a runtime toggle with the given key and value
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing runtime toggle with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a runtime toggle by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all runtime toggles in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a runtime toggle by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
